// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import "git.gammaspectra.live/monerod/consensus/consensus/hardfork"

// StageNetParams returns the network parameters for the staging Monero
// network.
func StageNetParams() *Params {
	return &Params{
		Name:        "stagenet",
		Net:         StageNet,
		DefaultPort: "38080",
		DNSSeeds: []string{
			"stagenet.seed.monero.network",
		},

		GenesisBlockBytes: mustHex("010000000000000000000000000000000000000000000000000000000000000000000012270000013c01ff0001ffffffffffff0302df5d56da0c7d643ddd1ce61901c7bdc5fb1738bfe39fbe69c28a3a7032729c0f2101168d0c4ca86fb55a4cf6a36d31431be1c53a3bd7411bb24e8832410289fa6f3b00"),
		GenesisHash:       mustHash("76ee3cc98646292206cd3e86f74d88b4dcc1d937088645e9b0cbca84b7ce74eb"),
		GenesisTxBytes:    mustHex("013c01ff0001ffffffffffff0302df5d56da0c7d643ddd1ce61901c7bdc5fb1738bfe39fbe69c28a3a7032729c0f2101168d0c4ca86fb55a4cf6a36d31431be1c53a3bd7411bb24e8832410289fa6f3b"),
		GenesisTxHash:     mustHash("c099809301da6ad2fde11969b0e9cb291fc698f8dc678cef00506e7baf561de4"),
		GenesisNonce:      10002,

		HardForks: []ForkActivation{
			at(hardfork.V1, 1, 1341378000),
			at(hardfork.V2, 32000, 1521000000),
			at(hardfork.V3, 33000, 1521120000),
			at(hardfork.V4, 34000, 1521240000),
			at(hardfork.V5, 35000, 1521360000),
			at(hardfork.V6, 36000, 1521480000),
			at(hardfork.V7, 37000, 1521600000),
			at(hardfork.V8, 176456, 1537821770),
			at(hardfork.V9, 177176, 1537821771),
			at(hardfork.V10, 269000, 1550153694),
			at(hardfork.V11, 269720, 1550225678),
			at(hardfork.V12, 454721, 1571419280),
			at(hardfork.V13, 675405, 1598180817),
			at(hardfork.V14, 676125, 1598180818),
			at(hardfork.V15, 1151000, 1656629117),
			at(hardfork.V16, 1151720, 1656629118),
		},
	}
}
