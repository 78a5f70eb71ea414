// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines chain configuration parameters.
//
// Monero has three standard networks: mainnet, testnet and stagenet. These
// networks are incompatible with each other (each has a different genesis
// block and hard-fork activation table) and callers should take care that
// input intended for one network is never fed to an application instance
// running on a different network.
//
// For main packages, a (typically global) var may be assigned the address of
// one of the standard Params vars for use as the application's "active"
// network. When a network parameter is needed, it may then be looked up
// through this variable (either directly, or hidden in a library call).
//
//	package main
//
//	import (
//	        "flag"
//
//	        "git.gammaspectra.live/monerod/consensus/chaincfg"
//	)
//
//	var testnet = flag.Bool("testnet", false, "operate on the Monero test network")
//
//	func main() {
//	        flag.Parse()
//
//	        // By default (without -testnet), use mainnet.
//	        chainParams := chaincfg.MainNetParams()
//	        if *testnet {
//	                chainParams = chaincfg.TestNetParams()
//	        }
//
//	        _ = chainParams
//	}
package chaincfg
