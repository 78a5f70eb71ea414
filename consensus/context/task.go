// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package context

import (
	"fmt"

	"git.gammaspectra.live/monerod/consensus/chaincfg"
	"git.gammaspectra.live/monerod/consensus/consensus/pow"
	"lukechampine.com/uint128"
)

// chainStore is everything the context actor's init/update path needs from
// the external blockchain store. It is the union of the smaller per-cache
// source interfaces so the actor can be constructed from one collaborator;
// chainio's read service implements it.
type chainStore interface {
	BlockTimestampSource
	BlockWeightSource
	BlockSeedSource

	ChainHeight() (height uint64, topHash [32]byte, err error)
	GeneratedCoins() (uint64, error)
}

// request is what Service sends to the actor goroutine; the actor sends
// exactly one value on resp and does not close it.
type request struct {
	kind requestKind
	// arguments, only one populated depending on kind
	batchHeights []uint64
	rxHeight     uint64
	newBlock     NewBlockData
	newVM        vmRegistration

	resp chan response
}

type vmRegistration struct {
	seedHeight uint64
	vm         vmHandle
}

// vmHandle is the VM type carried in requests and responses; an alias
// with the same method set as pow.VM.
type vmHandle = interface {
	CalculateHash(input []byte) [32]byte
}

type requestKind int

const (
	reqGetContext requestKind = iota
	reqBatchDifficulties
	reqGetVM
	reqNewVM
	reqUpdate
)

type response struct {
	context BlockContext
	diffs   []uint128.Uint128
	vm      vmHandle
	err     error
}

// task is the single-writer actor holding every mutable cache. All methods
// below run exclusively on the goroutine started by Service.run — nothing
// here is safe for direct concurrent access, which is the point: every
// field is touched by exactly one goroutine.
type task struct {
	store  chainStore
	params *chaincfg.Params

	difficulty *DifficultyCache
	weight     *WeightCache
	hardforks  *HardForkState
	rxVMs      *RandomXVMCache

	chainHeight           uint64
	topBlockHash          [32]byte
	alreadyGeneratedCoins uint64
}

// newTask builds the actor's initial state by loading every cache from
// store at the chain's current height.
func newTask(store chainStore, params *chaincfg.Params, vmBuilder VMBuilder) (*task, error) {
	chainHeight, topHash, err := store.ChainHeight()
	if err != nil {
		return nil, fmt.Errorf("context: loading chain height: %w", err)
	}
	generated, err := store.GeneratedCoins()
	if err != nil {
		return nil, fmt.Errorf("context: loading generated coins: %w", err)
	}

	hardforks := NewHardForkState(chainHeight, params)

	difficulty, err := NewDifficultyCache(chainHeight, store)
	if err != nil {
		return nil, fmt.Errorf("context: initializing difficulty cache: %w", err)
	}
	weight, err := NewWeightCache(chainHeight, MainNetWeightCacheConfig(), store)
	if err != nil {
		return nil, fmt.Errorf("context: initializing weight cache: %w", err)
	}
	rxVMs, err := NewRandomXVMCache(chainHeight, hardforks.CurrentHardFork(), vmBuilder, store)
	if err != nil {
		return nil, fmt.Errorf("context: initializing RandomX VM cache: %w", err)
	}

	return &task{
		store:                 store,
		params:                params,
		difficulty:            difficulty,
		weight:                weight,
		hardforks:             hardforks,
		rxVMs:                 rxVMs,
		chainHeight:           chainHeight,
		topBlockHash:          topHash,
		alreadyGeneratedCoins: generated,
	}, nil
}

func (t *task) handle(req request) response {
	switch req.kind {
	case reqGetContext:
		return response{context: t.snapshot()}
	case reqBatchDifficulties:
		return response{diffs: t.batchDifficulties(req.batchHeights)}
	case reqGetVM:
		// A block on a pre-RandomX fork needs no VM at all; skip the
		// (possibly very expensive) build entirely rather than
		// constructing one the caller's hasher will never use.
		if pow.AlgorithmForHardFork(t.params.HardForkAt(req.rxHeight)) != pow.AlgorithmRandomX {
			return response{}
		}
		vm, err := t.rxVMs.GetVM(req.rxHeight)
		return response{vm: vm, err: err}
	case reqNewVM:
		// Pre-registering an externally constructed VM (e.g. one built
		// speculatively ahead of the seed switch) just primes the cache;
		// vmForHeight will reuse it next time that seed height is needed.
		t.rxVMs.Register(req.newVM.seedHeight, req.newVM.vm)
		return response{}
	case reqUpdate:
		return t.applyUpdate(req.newBlock)
	default:
		return response{err: fmt.Errorf("context: unknown request kind %d", req.kind)}
	}
}

func (t *task) snapshot() BlockContext {
	hf := t.hardforks.CurrentHardFork()
	median, hasMedian := t.difficulty.MedianTimestamp(BlockTimestampWindowSize)
	tipTimestamp, _ := t.difficulty.TipTimestamp()
	return BlockContext{
		ChainHeight:             t.chainHeight,
		TopBlockHash:            t.topBlockHash,
		TopBlockTimestamp:       tipTimestamp,
		CurrentHardFork:         hf,
		NextDifficulty:          t.difficulty.NextDifficulty(hf),
		CumulativeDifficulty:    t.difficulty.CumulativeDifficulty(),
		MedianWeightForReward:   t.weight.MedianForBlockReward(hf),
		EffectiveMedianWeight:   t.weight.EffectiveMedianBlockWeight(hf),
		MedianLongTermWeight:    t.weight.MedianLongTermWeight(),
		AlreadyGeneratedCoins:   t.alreadyGeneratedCoins,
		MedianTimestampWindow60: median,
		HasMedianTimestamp:      hasMedian,
	}
}

func (t *task) batchDifficulties(heights []uint64) []uint128.Uint128 {
	hf := t.hardforks.CurrentHardFork()
	out := make([]uint128.Uint128, len(heights))
	for i := range heights {
		out[i] = t.difficulty.NextDifficulty(hf)
	}
	return out
}

// applyUpdate folds a newly accepted block into every cache. The caches
// are updated in a fixed order (difficulty, weight, hard-fork, RandomX VM)
// matching the teacher's convention of updating simplest/cheapest state
// first so a later failure leaves the least amount of work to reconcile.
func (t *task) applyUpdate(data NewBlockData) response {
	if err := t.difficulty.AddBlock(data.Height, data.Timestamp, t.store); err != nil {
		return response{err: fmt.Errorf("context: updating difficulty cache: %w", err)}
	}
	t.weight.NewBlock(data.Height, data.Weight, data.LongTermWeight)
	t.hardforks.NewBlock(data.Height, data.Vote)
	if err := t.rxVMs.NewBlock(data.Height, t.hardforks.CurrentHardFork()); err != nil {
		return response{err: fmt.Errorf("context: updating RandomX VM cache: %w", err)}
	}

	t.chainHeight = data.Height + 1
	t.topBlockHash = data.BlockHash
	t.alreadyGeneratedCoins += data.GeneratedCoins

	return response{}
}
