// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package context maintains a rolling view of the chain tip — the
// difficulty, weight, hard-fork and RandomX VM caches a block verifier
// needs on every block — behind a single-writer actor so readers always
// see a torn-free snapshot.
package context

import (
	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"lukechampine.com/uint128"
)

// BlockContext is an immutable snapshot of everything the verification
// pipeline needs to know about the chain's current tip to validate the
// next block.
type BlockContext struct {
	ChainHeight             uint64
	TopBlockHash            [32]byte
	TopBlockTimestamp       uint64
	CurrentHardFork         hardfork.HardFork
	NextDifficulty          uint128.Uint128
	CumulativeDifficulty    uint128.Uint128
	MedianWeightForReward   int
	EffectiveMedianWeight   int
	MedianLongTermWeight    int
	AlreadyGeneratedCoins   uint64
	MedianTimestampWindow60 uint64
	HasMedianTimestamp      bool
}

// NewBlockData is everything the context service needs to fold a newly
// accepted block into its caches.
type NewBlockData struct {
	Height               uint64
	BlockHash            [32]byte
	Timestamp            uint64
	Weight               int
	LongTermWeight       int
	CumulativeDifficulty uint128.Uint128
	GeneratedCoins       uint64
	Vote                 hardfork.HardFork
}
