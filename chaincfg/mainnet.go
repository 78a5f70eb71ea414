// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"time"

	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
)

func at(fork hardfork.HardFork, height uint64, unix int64) ForkActivation {
	return ForkActivation{Fork: fork, Height: height, Timestamp: time.Unix(unix, 0)}
}

// MainNetParams returns the network parameters for the main Monero network.
func MainNetParams() *Params {
	return &Params{
		Name:        "mainnet",
		Net:         MainNet,
		DefaultPort: "18080",
		DNSSeeds: []string{
			"seeds.moneroseeds.se",
			"seeds.moneroseeds.ae.org",
			"node.monerodevs.org",
		},

		GenesisBlockBytes: mustHex("010000000000000000000000000000000000000000000000000000000000000000000010270000013c01ff0001ffffffffffff03029b2e4c0281c0b02e7c53291a94d1d0cbff8883f8024f5142ee494ffbbd08807121017767aafcde9be00dcfd098715ebcf7f410daebc582fda69d24a28e9d0bc890d100"),
		GenesisHash:       mustHash("418015bb9ae982a1975da7d79277c2705727a56894ba0fb246adaabb1f4632e3"),
		GenesisTxBytes:    mustHex("013c01ff0001ffffffffffff03029b2e4c0281c0b02e7c53291a94d1d0cbff8883f8024f5142ee494ffbbd08807121017767aafcde9be00dcfd098715ebcf7f410daebc582fda69d24a28e9d0bc890d1"),
		GenesisTxHash:     mustHash("c88ce9783b4f11190d7b9c17a69c1c52200f9faaee8e98dd07e6811175177139"),
		GenesisNonce:      10000,

		// Hard fork activation heights, taken verbatim from the reference
		// node's hardcoded table. Heights, not vote tallies: the network
		// already decided these; the vote-counting machinery in
		// consensus/context only matters for a 17th fork that hasn't
		// happened yet.
		HardForks: []ForkActivation{
			at(hardfork.V1, 1, 1341378000),
			at(hardfork.V2, 1009827, 1442763710),
			at(hardfork.V3, 1141317, 1458558528),
			at(hardfork.V4, 1220516, 1483574400),
			at(hardfork.V5, 1288616, 1489520158),
			at(hardfork.V6, 1400000, 1503046577),
			at(hardfork.V7, 1546000, 1521303150),
			at(hardfork.V8, 1685555, 1535889547),
			at(hardfork.V9, 1686275, 1535889548),
			at(hardfork.V10, 1788000, 1549792439),
			at(hardfork.V11, 1788720, 1550225678),
			at(hardfork.V12, 1978433, 1571419280),
			at(hardfork.V13, 2210000, 1598180817),
			at(hardfork.V14, 2210720, 1598180818),
			at(hardfork.V15, 2688888, 1656629117),
			at(hardfork.V16, 2689608, 1656629118),
		},
	}
}
