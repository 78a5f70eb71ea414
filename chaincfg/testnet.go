// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import "git.gammaspectra.live/monerod/consensus/consensus/hardfork"

// TestNetParams returns the network parameters for the test Monero network.
func TestNetParams() *Params {
	return &Params{
		Name:        "testnet",
		Net:         TestNet,
		DefaultPort: "28080",
		DNSSeeds: []string{
			"testnet.seed.monero.network",
		},

		GenesisBlockBytes: mustHex("010000000000000000000000000000000000000000000000000000000000000000000011270000013c01ff0001ffffffffffff03029b2e4c0281c0b02e7c53291a94d1d0cbff8883f8024f5142ee494ffbbd08807121017767aafcde9be00dcfd098715ebcf7f410daebc582fda69d24a28e9d0bc890d100"),
		GenesisHash:       mustHash("48ca7cd3c8de5b6a4d53d2861fbdaedca141553559f9be9520068053cda8430b"),
		GenesisTxBytes:    mustHex("013c01ff0001ffffffffffff03029b2e4c0281c0b02e7c53291a94d1d0cbff8883f8024f5142ee494ffbbd08807121017767aafcde9be00dcfd098715ebcf7f410daebc582fda69d24a28e9d0bc890d1"),
		GenesisTxHash:     mustHash("c88ce9783b4f11190d7b9c17a69c1c52200f9faaee8e98dd07e6811175177139"),
		GenesisNonce:      10001,

		HardForks: []ForkActivation{
			at(hardfork.V1, 1, 1341378000),
			at(hardfork.V2, 624634, 1445355000),
			at(hardfork.V3, 800500, 1472415034),
			at(hardfork.V4, 801219, 1472415035),
			at(hardfork.V5, 802660, 1472415036+86400*180),
			at(hardfork.V6, 971400, 1501709789),
			at(hardfork.V7, 1057027, 1512211236),
			at(hardfork.V8, 1057058, 1533211200),
			at(hardfork.V9, 1057778, 1533297600),
			at(hardfork.V10, 1154318, 1550153694),
			at(hardfork.V11, 1155038, 1550225678),
			at(hardfork.V12, 1308737, 1569582000),
			at(hardfork.V13, 1543939, 1599069376),
			at(hardfork.V14, 1544659, 1599069377),
			at(hardfork.V15, 1982800, 1652727000),
			at(hardfork.V16, 1983520, 1652813400),
		},
	}
}
