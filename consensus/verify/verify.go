// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package verify implements the two-stage block verification pipeline:
// Stage A (batch-prepare) runs the cheap, embarrassingly-parallel parts of
// validating a batch of candidate blocks — hashing, chain-linkage and PoW
// checks, transaction parsing — across a worker pool; Stage B
// (verify-block) runs the sequential, state-dependent rule checks block by
// block, feeding accepted blocks back into the context service.
package verify

import (
	"fmt"

	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"git.gammaspectra.live/monerod/consensus/consensus/txtypes"
)

// RawBlock is a block as received from the P2P layer or store: header
// fields, the decoded miner transaction and the hashes of the regular
// transactions. The regular transactions' serialized bytes travel
// separately and are decoded by BatchPrepareMainChain, off the context
// actor.
type RawBlock struct {
	MajorVersion uint8
	MinorVersion uint8
	Timestamp    uint64
	PrevID       txtypes.Hash
	Nonce        uint32
	MinerTx      txtypes.Transaction
	TxHashes     []txtypes.Hash
	Weight       int
}

// PreparedBlock is a block that has had its hash, height and hard fork
// computed but not yet had its proof of work checked against a difficulty
// target (that happens once the batch's context is known, in
// BatchPrepareMainChain).
type PreparedBlock struct {
	Raw       RawBlock
	BlockHash txtypes.Hash
	Height    uint64
	HFVersion hardfork.HardFork
	HFVote    hardfork.HardFork
	// PoWHash is populated once PoW has been computed (requires the
	// RandomX VM for the block's seed, obtained from the context service).
	PoWHash txtypes.Hash
}

// PreparedTxSet is a block's transactions, keyed by hash and reordered to
// match the block's declared tx_hashes order.
type PreparedTxSet struct {
	ByHash  map[txtypes.Hash]*txtypes.Transaction
	Ordered []*txtypes.Transaction
}

// PreparedBatch is the output of Stage A: every block in a contiguous
// batch, paired with its parsed and ordered transactions, ready for Stage
// B's sequential rule checks.
type PreparedBatch struct {
	Blocks []PreparedBlock
	Txs    []PreparedTxSet
}

// Hasher computes a block's hash and pow hash. Implemented outside this
// package over the P2Pool Monero hashing library.
type Hasher interface {
	BlockHash(b RawBlock) txtypes.Hash
	PoWHash(b RawBlock, hf hardfork.HardFork, height uint64, vm interface {
		CalculateHash([]byte) [32]byte
	}) (txtypes.Hash, error)
}

// Error is returned by this package's pipeline functions; it distinguishes
// a block/tx that violates a consensus rule (Rule != nil) from an
// environmental failure talking to the context service or store.
type Error struct {
	Height uint64
	Rule   error
	Env    error
}

func (e *Error) Error() string {
	if e.Rule != nil {
		return fmt.Sprintf("verify: block %d: %v", e.Height, e.Rule)
	}
	return fmt.Sprintf("verify: block %d: %v", e.Height, e.Env)
}

func (e *Error) Unwrap() error {
	if e.Rule != nil {
		return e.Rule
	}
	return e.Env
}

func ruleFail(height uint64, err error) error { return &Error{Height: height, Rule: err} }
func envFail(height uint64, err error) error   { return &Error{Height: height, Env: err} }
