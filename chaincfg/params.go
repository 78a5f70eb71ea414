// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"encoding/hex"
	"time"

	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
)

// Network identifies one of the three standard Monero networks.
type Network uint8

const (
	MainNet Network = iota
	TestNet
	StageNet
)

// String implements fmt.Stringer.
func (n Network) String() string {
	switch n {
	case MainNet:
		return "mainnet"
	case TestNet:
		return "testnet"
	case StageNet:
		return "stagenet"
	default:
		return "unknown"
	}
}

// ForkActivation records the height and wall-clock time at which a hard
// fork's version became the ideal (enforced) version on a given network.
// The timestamp is when the activation height was decided, not the block
// timestamp at that height; it exists purely for operator-facing logging.
type ForkActivation struct {
	Fork      hardfork.HardFork
	Height    uint64
	Timestamp time.Time
}

// Params defines the chain parameters for one of the standard networks.
type Params struct {
	Name        string
	Net         Network
	DefaultPort string
	DNSSeeds    []string

	// GenesisBlockBytes is the serialized genesis block.
	GenesisBlockBytes []byte
	// GenesisHash is the hash of the genesis block.
	GenesisHash [32]byte
	// GenesisTxBytes is the serialized genesis miner transaction.
	GenesisTxBytes []byte
	// GenesisTxHash is the hash of the genesis miner transaction.
	GenesisTxHash [32]byte
	// GenesisNonce is the nonce baked into the genesis block header.
	GenesisNonce uint32

	// HardForks lists, in order, every hard fork this network has
	// activated. It always has one entry per known HardFork value.
	HardForks []ForkActivation
}

// HardForkAt returns the ideal hard fork for a given chain height: the
// highest-versioned fork whose activation height is <= height.
//
// This function is safe for concurrent access.
func (p *Params) HardForkAt(height uint64) hardfork.HardFork {
	ideal := hardfork.HardFork(0)
	for _, fa := range p.HardForks {
		if height >= fa.Height {
			ideal = fa.Fork
		} else {
			break
		}
	}
	if ideal == 0 {
		return hardfork.V1
	}
	return ideal
}

// EarliestHeightForFork returns the lowest height at which fork is the
// ideal version, and false if fork is unknown to this network's table.
func (p *Params) EarliestHeightForFork(fork hardfork.HardFork) (uint64, bool) {
	for _, fa := range p.HardForks {
		if fa.Fork == fork {
			return fa.Height, true
		}
	}
	return 0, false
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func mustHash(s string) [32]byte {
	var out [32]byte
	b := mustHex(s)
	copy(out[:], b)
	return out
}
