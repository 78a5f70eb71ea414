// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verify

import (
	"context"
	"errors"
	"testing"

	"git.gammaspectra.live/monerod/consensus/chaincfg"
	ctxsvc "git.gammaspectra.live/monerod/consensus/consensus/context"
	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"git.gammaspectra.live/monerod/consensus/consensus/pow"
	"git.gammaspectra.live/monerod/consensus/consensus/rules"
	"git.gammaspectra.live/monerod/consensus/consensus/txtypes"
	"lukechampine.com/uint128"
)

// fakeStore is a minimal chainStore backed by plain slices, built the same
// way as the context package's own test double: structurally, against its
// unexported chainStore interface, with n pre-existing blocks spaced 120
// seconds apart.
type fakeStore struct {
	timestamps []uint64
	cumDiff    []uint128.Uint128
	topHash    [32]byte
}

func newFakeStore(n int) fakeStore {
	s := fakeStore{}
	for i := 0; i < n; i++ {
		s.timestamps = append(s.timestamps, uint64(i)*120)
		prev := uint128.Uint128{}
		if len(s.cumDiff) > 0 {
			prev = s.cumDiff[len(s.cumDiff)-1]
		}
		s.cumDiff = append(s.cumDiff, prev.Add64(1000))
	}
	return s
}

func (s fakeStore) ChainHeight() (uint64, [32]byte, error) {
	return uint64(len(s.timestamps)), s.topHash, nil
}
func (s fakeStore) GeneratedCoins() (uint64, error) { return 0, nil }
func (s fakeStore) TimestampsInRange(start, end uint64) ([]uint64, error) {
	if end > uint64(len(s.timestamps)) {
		end = uint64(len(s.timestamps))
	}
	if start > end {
		start = end
	}
	return append([]uint64(nil), s.timestamps[start:end]...), nil
}
func (s fakeStore) CumulativeDifficultyAt(height uint64) (uint128.Uint128, error) {
	if len(s.cumDiff) == 0 {
		return uint128.Uint128{}, nil
	}
	if height >= uint64(len(s.cumDiff)) {
		return s.cumDiff[len(s.cumDiff)-1], nil
	}
	return s.cumDiff[height], nil
}
func (s fakeStore) BlockWeightsInRange(start, end uint64) ([]int, []int, error) {
	return nil, nil, nil
}
func (s fakeStore) SeedHashAt(height uint64) ([32]byte, error) { return [32]byte{}, nil }

func newGenesisService(t *testing.T) *ctxsvc.Service {
	t.Helper()
	return newServiceWithHeight(t, 0)
}

func newServiceWithHeight(t *testing.T, n int) *ctxsvc.Service {
	t.Helper()
	svc, err := ctxsvc.NewService(newFakeStore(n), chaincfg.MainNetParams(), pow.NoRandomXBuilder{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

// minerOnlyBlock builds a V1 block extending the chain with a single
// pre-RingCT miner transaction claiming exactly reward, and no regular
// transactions.
func minerOnlyBlock(t *testing.T, ctxSvc *ctxsvc.Service, blockWeight int, timestamp uint64) (PreparedBlock, PreparedTxSet) {
	t.Helper()

	bctx, err := ctxSvc.GetContext(context.Background())
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}

	reward := rules.CalculateBlockReward(blockWeight, bctx.MedianWeightForReward, bctx.AlreadyGeneratedCoins, bctx.CurrentHardFork)

	minerTx := txtypes.Transaction{
		Version: txtypes.VersionRingSignatures,
		Inputs: []txtypes.Input{
			{Kind: txtypes.InputGen, Gen: bctx.ChainHeight},
		},
		Outputs: []txtypes.Output{
			{Amount: reward, HasAmount: true, Key: [32]byte{1}},
		},
		Lock: txtypes.Timelock{Kind: txtypes.TimelockBlock, Height: bctx.ChainHeight + 60},
	}

	block := PreparedBlock{
		Raw: RawBlock{
			MajorVersion: uint8(hardfork.V1),
			MinorVersion: uint8(hardfork.V1),
			Timestamp:    timestamp,
			PrevID:       txtypes.Hash(bctx.TopBlockHash),
			MinerTx:      minerTx,
			Weight:       blockWeight,
		},
		BlockHash: txtypes.Hash{0xaa},
		Height:    bctx.ChainHeight,
		HFVersion: bctx.CurrentHardFork,
		HFVote:    hardfork.V1,
	}
	return block, PreparedTxSet{ByHash: map[txtypes.Hash]*txtypes.Transaction{}, Ordered: nil}
}

func TestVerifyBlockAcceptsMinerOnlyBlock(t *testing.T) {
	ctxSvc := newGenesisService(t)
	block, txs := minerOnlyBlock(t, ctxSvc, 100, 1000)

	if err := VerifyBlock(context.Background(), block, txs, 1000, ctxSvc, Collaborators{}); err != nil {
		t.Fatalf("VerifyBlock: %v", err)
	}

	after, err := ctxSvc.GetContext(context.Background())
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if after.ChainHeight != 1 {
		t.Errorf("ChainHeight after VerifyBlock = %d, want 1", after.ChainHeight)
	}
	if after.TopBlockHash != [32]byte(block.BlockHash) {
		t.Errorf("TopBlockHash after VerifyBlock = %x, want %x", after.TopBlockHash, block.BlockHash)
	}
	if after.AlreadyGeneratedCoins != block.Raw.MinerTx.Outputs[0].Amount {
		t.Errorf("AlreadyGeneratedCoins = %d, want %d", after.AlreadyGeneratedCoins, block.Raw.MinerTx.Outputs[0].Amount)
	}
}

func TestVerifyBlockRejectsWrongPrevID(t *testing.T) {
	ctxSvc := newGenesisService(t)
	block, txs := minerOnlyBlock(t, ctxSvc, 100, 1000)
	block.Raw.PrevID = txtypes.Hash{0xff}

	err := VerifyBlock(context.Background(), block, txs, 1000, ctxSvc, Collaborators{})
	if err == nil {
		t.Fatal("expected an error for a block that does not extend the chain tip")
	}
	var re rules.RuleError
	if !errors.As(err, &re) {
		t.Fatalf("expected a RuleError, got %v", err)
	}
	if re.ErrorCode != rules.ErrBlockHeaderInvalid {
		t.Errorf("ErrorCode = %v, want ErrBlockHeaderInvalid", re.ErrorCode)
	}
}

func TestVerifyBlockRejectsOverweightBlock(t *testing.T) {
	ctxSvc := newGenesisService(t)
	block, txs := minerOnlyBlock(t, ctxSvc, 100, 1000)
	block.Raw.Weight = 2*20000 + 1 // twice the V1 penalty-free zone, plus one

	err := VerifyBlock(context.Background(), block, txs, 1000, ctxSvc, Collaborators{})
	if err == nil {
		t.Fatal("expected an error for a block exceeding twice the effective median weight")
	}
}

// TestVerifyBlockRejectsFutureTimestamp uses a chain long enough to have a
// median timestamp, since at genesis the timestamp rule is skipped
// entirely (there is nothing yet to take a median of).
func TestVerifyBlockRejectsFutureTimestamp(t *testing.T) {
	ctxSvc := newServiceWithHeight(t, 60)
	now := uint64(60 * 120)
	block, txs := minerOnlyBlock(t, ctxSvc, 100, now+maxFutureTimeSeconds+1)

	err := VerifyBlock(context.Background(), block, txs, now, ctxSvc, Collaborators{})
	if err == nil {
		t.Fatal("expected an error for a block timestamped too far in the future")
	}
}

func TestVerifyBlockRejectsOverclaimingMinerTx(t *testing.T) {
	ctxSvc := newGenesisService(t)
	block, txs := minerOnlyBlock(t, ctxSvc, 100, 1000)
	block.Raw.MinerTx.Outputs[0].Amount++

	err := VerifyBlock(context.Background(), block, txs, 1000, ctxSvc, Collaborators{})
	if err == nil {
		t.Fatal("expected an error for a miner transaction overclaiming the reward")
	}
	var re rules.RuleError
	if !errors.As(err, &re) {
		t.Fatalf("expected a RuleError, got %v", err)
	}
	if re.ErrorCode != rules.ErrMinerTxInvalid {
		t.Errorf("ErrorCode = %v, want ErrMinerTxInvalid", re.ErrorCode)
	}
}
