// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package context

import (
	"context"
	"testing"

	"git.gammaspectra.live/monerod/consensus/chaincfg"
	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"git.gammaspectra.live/monerod/consensus/consensus/pow"
	"lukechampine.com/uint128"
)

// fakeStore is a minimal chainStore backed by plain slices, built up to
// whatever height a test needs via appendBlock.
type fakeStore struct {
	timestamps []uint64
	cumDiff    []uint128.Uint128
	weights    []int
	longTerm   []int
	seeds      [][32]byte
	generated  uint64
	topHash    [32]byte
}

func newFakeStore(n int) *fakeStore {
	s := &fakeStore{}
	for i := 0; i < n; i++ {
		s.appendBlock(uint64(i)*120, i, i)
	}
	return s
}

func (s *fakeStore) appendBlock(timestamp uint64, weight, longTermWeight int) {
	s.timestamps = append(s.timestamps, timestamp)
	prev := uint128.Uint128{}
	if len(s.cumDiff) > 0 {
		prev = s.cumDiff[len(s.cumDiff)-1]
	}
	s.cumDiff = append(s.cumDiff, prev.Add64(1000))
	s.weights = append(s.weights, weight)
	s.longTerm = append(s.longTerm, longTermWeight)
	s.seeds = append(s.seeds, [32]byte{})
}

func (s *fakeStore) ChainHeight() (uint64, [32]byte, error) {
	return uint64(len(s.timestamps)), s.topHash, nil
}

func (s *fakeStore) GeneratedCoins() (uint64, error) { return s.generated, nil }

func (s *fakeStore) TimestampsInRange(start, end uint64) ([]uint64, error) {
	if end > uint64(len(s.timestamps)) {
		end = uint64(len(s.timestamps))
	}
	if start > end {
		start = end
	}
	return append([]uint64(nil), s.timestamps[start:end]...), nil
}

func (s *fakeStore) CumulativeDifficultyAt(height uint64) (uint128.Uint128, error) {
	if height >= uint64(len(s.cumDiff)) {
		return s.cumDiff[len(s.cumDiff)-1], nil
	}
	return s.cumDiff[height], nil
}

func (s *fakeStore) BlockWeightsInRange(start, end uint64) ([]int, []int, error) {
	if end > uint64(len(s.weights)) {
		end = uint64(len(s.weights))
	}
	if start > end {
		start = end
	}
	return append([]int(nil), s.weights[start:end]...), append([]int(nil), s.longTerm[start:end]...), nil
}

func (s *fakeStore) SeedHashAt(height uint64) ([32]byte, error) {
	if height >= uint64(len(s.seeds)) {
		return [32]byte{}, nil
	}
	return s.seeds[height], nil
}

func newTestService(t *testing.T, n int) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore(n)
	svc, err := NewService(store, chaincfg.MainNetParams(), pow.NoRandomXBuilder{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc, store
}

func TestServiceGetContext(t *testing.T) {
	svc, store := newTestService(t, 10)
	ctx, err := svc.GetContext(context.Background())
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if ctx.ChainHeight != uint64(len(store.timestamps)) {
		t.Errorf("ChainHeight = %d, want %d", ctx.ChainHeight, len(store.timestamps))
	}
	if ctx.CurrentHardFork != hardfork.V1 {
		t.Errorf("CurrentHardFork = %v, want V1 at height 10", ctx.CurrentHardFork)
	}
	if want := store.timestamps[len(store.timestamps)-1]; ctx.TopBlockTimestamp != want {
		t.Errorf("TopBlockTimestamp = %d, want %d", ctx.TopBlockTimestamp, want)
	}
}

func TestServiceUpdateAdvancesHeight(t *testing.T) {
	svc, store := newTestService(t, 10)
	before, err := svc.GetContext(context.Background())
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}

	store.appendBlock(uint64(len(store.timestamps))*120, 5, 5)
	data := NewBlockData{
		Height:               before.ChainHeight,
		BlockHash:            [32]byte{9},
		Timestamp:            store.timestamps[len(store.timestamps)-1],
		Weight:               5,
		LongTermWeight:       5,
		CumulativeDifficulty: store.cumDiff[len(store.cumDiff)-1],
		GeneratedCoins:       100,
		Vote:                 hardfork.V1,
	}
	if err := svc.Update(context.Background(), data); err != nil {
		t.Fatalf("Update: %v", err)
	}

	after, err := svc.GetContext(context.Background())
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if after.ChainHeight != before.ChainHeight+1 {
		t.Errorf("ChainHeight after Update = %d, want %d", after.ChainHeight, before.ChainHeight+1)
	}
	if after.TopBlockHash != data.BlockHash {
		t.Errorf("TopBlockHash after Update = %x, want %x", after.TopBlockHash, data.BlockHash)
	}
	if after.AlreadyGeneratedCoins != 100 {
		t.Errorf("AlreadyGeneratedCoins after Update = %d, want 100", after.AlreadyGeneratedCoins)
	}
}

func TestServiceBatchGetDifficulties(t *testing.T) {
	svc, _ := newTestService(t, 10)
	diffs, err := svc.BatchGetDifficulties(context.Background(), []uint64{10, 11, 12})
	if err != nil {
		t.Fatalf("BatchGetDifficulties: %v", err)
	}
	if len(diffs) != 3 {
		t.Fatalf("len(diffs) = %d, want 3", len(diffs))
	}
}

func TestServiceStartsAgainstEmptyChain(t *testing.T) {
	store := &fakeStore{}
	svc, err := NewService(store, chaincfg.MainNetParams(), pow.NoRandomXBuilder{})
	if err != nil {
		t.Fatalf("NewService against an empty chain: %v", err)
	}
	defer svc.Close()

	ctx, err := svc.GetContext(context.Background())
	if err != nil {
		t.Fatalf("GetContext: %v", err)
	}
	if ctx.ChainHeight != 0 {
		t.Errorf("ChainHeight = %d, want 0", ctx.ChainHeight)
	}
}

func TestServiceCloseStopsActor(t *testing.T) {
	store := newFakeStore(5)
	svc, err := NewService(store, chaincfg.MainNetParams(), pow.NoRandomXBuilder{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.Close()
	if _, err := svc.GetContext(context.Background()); err == nil {
		t.Error("expected an error calling GetContext after Close")
	}
}
