// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verify

import (
	"context"
	"errors"
	"testing"

	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"git.gammaspectra.live/monerod/consensus/consensus/pow"
	"git.gammaspectra.live/monerod/consensus/consensus/rules"
	"git.gammaspectra.live/monerod/consensus/consensus/txtypes"
)

// fakeHasher derives a block's hash from its nonce, letting tests build
// chains of linked blocks without real CryptoNight hashing, and always
// reports an all-zero PoW hash, which trivially satisfies any positive
// difficulty (see rules.CheckProofOfWork).
type fakeHasher struct{}

func (fakeHasher) BlockHash(b RawBlock) txtypes.Hash {
	var h txtypes.Hash
	h[0] = byte(b.Nonce)
	h[1] = byte(b.Nonce >> 8)
	return h
}

func (fakeHasher) PoWHash(b RawBlock, hf hardfork.HardFork, height uint64, vm interface {
	CalculateHash([]byte) [32]byte
}) (txtypes.Hash, error) {
	return txtypes.Hash{}, nil
}

// fakeTxParser returns an empty transaction set regardless of input, which
// is enough for the chain-linkage/PoW checks BatchPrepareMainChain itself
// performs.
type fakeTxParser struct{}

func (fakeTxParser) Parse(raw [][]byte, txHashes []txtypes.Hash) (PreparedTxSet, error) {
	return PreparedTxSet{ByHash: map[txtypes.Hash]*txtypes.Transaction{}}, nil
}

func linkedRawBlocks(n int, prevOfFirst txtypes.Hash) []RawBlock {
	blocks := make([]RawBlock, n)
	prev := prevOfFirst
	for i := range blocks {
		blocks[i] = RawBlock{
			MajorVersion: uint8(hardfork.V1),
			MinorVersion: uint8(hardfork.V1),
			Nonce:        uint32(i + 1),
			PrevID:       prev,
		}
		prev = (fakeHasher{}).BlockHash(blocks[i])
	}
	return blocks
}

func TestBatchPrepareMainChainAcceptsLinkedBatch(t *testing.T) {
	ctxSvc := newGenesisService(t)
	blocks := linkedRawBlocks(3, txtypes.Hash{})
	rawTxs := make([][][]byte, len(blocks))

	batch, err := BatchPrepareMainChain(context.Background(), 0, blocks, rawTxs, ctxSvc, fakeHasher{}, fakeTxParser{}, pow.NoRandomXBuilder{})
	if err != nil {
		t.Fatalf("BatchPrepareMainChain: %v", err)
	}
	if len(batch.Blocks) != 3 {
		t.Fatalf("len(batch.Blocks) = %d, want 3", len(batch.Blocks))
	}
	for i, b := range batch.Blocks {
		if b.Height != uint64(i) {
			t.Errorf("batch.Blocks[%d].Height = %d, want %d", i, b.Height, i)
		}
		if b.HFVersion != hardfork.V1 {
			t.Errorf("batch.Blocks[%d].HFVersion = %v, want V1", i, b.HFVersion)
		}
	}
	if len(batch.Txs) != 3 {
		t.Fatalf("len(batch.Txs) = %d, want 3", len(batch.Txs))
	}
}

func TestBatchPrepareMainChainRejectsBrokenChain(t *testing.T) {
	ctxSvc := newGenesisService(t)
	blocks := linkedRawBlocks(2, txtypes.Hash{})
	blocks[1].PrevID = txtypes.Hash{0xff} // breaks the link to blocks[0]
	rawTxs := make([][][]byte, len(blocks))

	_, err := BatchPrepareMainChain(context.Background(), 0, blocks, rawTxs, ctxSvc, fakeHasher{}, fakeTxParser{}, pow.NoRandomXBuilder{})
	if err == nil {
		t.Fatal("expected an error for a batch whose blocks do not form a chain")
	}
	var re rules.RuleError
	if !errors.As(err, &re) {
		t.Fatalf("expected a RuleError, got %v", err)
	}
	if re.ErrorCode != rules.ErrBlockHeaderInvalid {
		t.Errorf("ErrorCode = %v, want ErrBlockHeaderInvalid", re.ErrorCode)
	}
}

func TestBatchPrepareMainChainRejectsWrongStartHeight(t *testing.T) {
	ctxSvc := newServiceWithHeight(t, 5)
	blocks := linkedRawBlocks(1, txtypes.Hash{})
	rawTxs := make([][][]byte, len(blocks))

	_, err := BatchPrepareMainChain(context.Background(), 0, blocks, rawTxs, ctxSvc, fakeHasher{}, fakeTxParser{}, pow.NoRandomXBuilder{})
	if err == nil {
		t.Fatal("expected an error for a batch that does not start at the chain's current height")
	}
}

func TestBatchPrepareMainChainRejectsEmptyBatch(t *testing.T) {
	ctxSvc := newGenesisService(t)

	_, err := BatchPrepareMainChain(context.Background(), 0, nil, nil, ctxSvc, fakeHasher{}, fakeTxParser{}, pow.NoRandomXBuilder{})
	if err == nil {
		t.Fatal("expected an error for an empty batch")
	}
}

func TestBatchPrepareMainChainRejectsUnknownHardForkVersion(t *testing.T) {
	ctxSvc := newGenesisService(t)
	blocks := linkedRawBlocks(1, txtypes.Hash{})
	blocks[0].MajorVersion = 0xff
	rawTxs := make([][][]byte, len(blocks))

	_, err := BatchPrepareMainChain(context.Background(), 0, blocks, rawTxs, ctxSvc, fakeHasher{}, fakeTxParser{}, pow.NoRandomXBuilder{})
	if err == nil {
		t.Fatal("expected an error for a block with an unknown hard-fork version")
	}
}
