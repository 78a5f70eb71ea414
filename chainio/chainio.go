// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainio declares the blockchain store's request/response contract
// as Go interfaces. No concrete store ships in this repository: production
// wiring implements ReadService and WriteService against a real database;
// chainiotest implements both in-memory for tests.
package chainio

import (
	"context"

	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"lukechampine.com/uint128"
)

// ExtendedHeader is the subset of a stored block's header the context
// service needs to rebuild its difficulty and weight caches after a
// restart, without re-parsing full blocks.
type ExtendedHeader struct {
	BlockHash            [32]byte
	BlockWeight          int
	LongTermWeight       int
	CumulativeDifficulty uint128.Uint128
	Timestamp            uint64
	HFVersion            hardfork.HardFork
	HFVote               hardfork.HardFork
}

// OutputOnChain is a single resolved ring-member output: its one-time
// public key and (for RingCT outputs) its amount commitment.
type OutputOnChain struct {
	Key        [32]byte
	Commitment [32]byte
	// Unlocked reports whether the output's own time lock (if any) has
	// matured as of the height the read was made at.
	Unlocked bool
	// Height is the height of the block the output was created in, used
	// for ring time-lock checks spanning multiple outputs.
	Height uint64
}

// HeightRange is an inclusive-exclusive [Start, End) range of heights.
type HeightRange struct {
	Start, End uint64
}

// ReadService is everything the verification pipeline and context service
// read from the blockchain store.
type ReadService interface {
	// ChainHeight returns the chain's length (the current tip's height plus
	// one, i.e. the height the next block will take) and the tip's hash.
	ChainHeight(ctx context.Context) (height uint64, topHash [32]byte, err error)

	// GeneratedCoins returns the total coins generated by block height.
	GeneratedCoins(ctx context.Context, height uint64) (uint64, error)

	// BlockExtendedHeaderInRange returns stored headers for r, oldest first.
	BlockExtendedHeaderInRange(ctx context.Context, r HeightRange) ([]ExtendedHeader, error)

	// Outputs resolves, for each amount, the requested global output
	// indices to their on-chain key/commitment/unlock state.
	Outputs(ctx context.Context, amounts map[uint64][]uint64) (map[uint64]map[uint64]OutputOnChain, error)

	// NumberOutputsWithAmount reports how many outputs of each amount
	// exist on chain, used to bound decoy index selection.
	NumberOutputsWithAmount(ctx context.Context, amounts []uint64) (map[uint64]uint64, error)

	// KeyImagesSpent reports whether any of keyImages has already been
	// spent by a transaction in the main chain.
	KeyImagesSpent(ctx context.Context, keyImages map[[32]byte]struct{}) (bool, error)

	// FindFirstUnknown scans ids (oldest to newest, as from a peer's
	// ChainResponse) and returns the index of the first hash not present
	// in the store, and the height it would occupy. ok is false if every
	// hash is already known.
	FindFirstUnknown(ctx context.Context, ids [][32]byte) (index int, expectedHeight uint64, ok bool, err error)
}

// VerifiedBlock is a block that has passed every Stage A/B check and is
// ready to commit atomically.
type VerifiedBlock struct {
	Height    uint64
	BlockHash [32]byte
	Header    ExtendedHeader
	TxHashes  [][32]byte
}

// WriteService commits fully verified blocks to the store.
type WriteService interface {
	WriteBlock(ctx context.Context, block VerifiedBlock) error
}
