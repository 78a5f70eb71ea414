// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package context

import (
	"sort"

	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
)

// Penalty-free zone sizes and rolling-window lengths for the block weight
// cache.
//
// ref: consensus/src/context/weight.rs
const (
	penaltyFreeZoneV1 = 20000
	penaltyFreeZoneV2 = 60000
	penaltyFreeZoneV5 = 300000

	shortTermWindow = 100
	longTermWindow  = 100000
)

// PenaltyFreeZone returns the block weight under which no reward penalty
// applies for hf.
func PenaltyFreeZone(hf hardfork.HardFork) int {
	switch {
	case hf == hardfork.V1:
		return penaltyFreeZoneV1
	case hf >= hardfork.V2 && hf <= hardfork.V5:
		return penaltyFreeZoneV2
	default:
		return penaltyFreeZoneV5
	}
}

// WeightCacheConfig controls the rolling-window sizes a WeightCache tracks.
// MainNetWeightCacheConfig returns the sizes used on all three networks
// today; the type exists so tests can exercise smaller windows.
type WeightCacheConfig struct {
	ShortTermWindow uint64
	LongTermWindow  uint64
}

// MainNetWeightCacheConfig returns the standard rolling-window sizes.
func MainNetWeightCacheConfig() WeightCacheConfig {
	return WeightCacheConfig{ShortTermWindow: shortTermWindow, LongTermWindow: longTermWindow}
}

// BlockWeightSource answers the historical block-weight queries a
// WeightCache needs to initialize.
type BlockWeightSource interface {
	// BlockWeightsInRange returns (weight, longTermWeight) pairs for blocks
	// [start, end), oldest first.
	BlockWeightsInRange(start, end uint64) (weights, longTermWeights []int, err error)
}

// WeightCache tracks the rolling short-term and long-term block weight
// windows used to compute the effective median weight, the block weight
// limit, and the median used for reward penalty scaling.
//
// Not safe for concurrent use; callers serialize access through the
// context service's single-writer actor.
type WeightCache struct {
	shortTerm []int
	longTerm  []int
	tipHeight uint64
	cfg       WeightCacheConfig
}

// NewWeightCache initializes a WeightCache at chainHeight (one past the
// current tip) by loading the trailing windows from src.
func NewWeightCache(chainHeight uint64, cfg WeightCacheConfig, src BlockWeightSource) (*WeightCache, error) {
	longStart := saturatingSub(chainHeight, cfg.LongTermWindow)
	longWeights, _, err := src.BlockWeightsInRange(longStart, chainHeight)
	if err != nil {
		return nil, err
	}

	shortStart := saturatingSub(chainHeight, cfg.ShortTermWindow)
	shortWeights, _, err := src.BlockWeightsInRange(shortStart, chainHeight)
	if err != nil {
		return nil, err
	}

	return &WeightCache{
		shortTerm: shortWeights,
		longTerm:  longWeights,
		tipHeight: saturatingSub(chainHeight, 1),
		cfg:       cfg,
	}, nil
}

// NewBlock folds a newly accepted block's weight and long-term weight into
// the cache. blockHeight must be exactly one more than the cache's current
// tip height.
func (wc *WeightCache) NewBlock(blockHeight uint64, blockWeight, longTermWeight int) {
	if wc.tipHeight+1 != blockHeight {
		panic("context: out-of-order block added to weight cache")
	}
	wc.tipHeight = blockHeight

	wc.longTerm = append(wc.longTerm, longTermWeight)
	if uint64(len(wc.longTerm)) > wc.cfg.LongTermWindow {
		wc.longTerm = wc.longTerm[1:]
	}

	wc.shortTerm = append(wc.shortTerm, blockWeight)
	if uint64(len(wc.shortTerm)) > wc.cfg.ShortTermWindow {
		wc.shortTerm = wc.shortTerm[1:]
	}
}

// MedianLongTermWeight returns the median of the long-term weight window.
func (wc *WeightCache) MedianLongTermWeight() int {
	return medianInt(wc.longTerm)
}

// MedianShortTermWeight returns the median of the short-term weight window.
func (wc *WeightCache) MedianShortTermWeight() int {
	return medianInt(wc.shortTerm)
}

// EffectiveMedianBlockWeight returns the median weight used for the block
// weight limit.
//
// ref: calculate_effective_median_block_weight, weight.rs
func (wc *WeightCache) EffectiveMedianBlockWeight(hf hardfork.HardFork) int {
	return calculateEffectiveMedianBlockWeight(hf, wc.MedianShortTermWeight(), wc.MedianLongTermWeight())
}

// MedianForBlockReward returns the median weight used to scale the block
// reward's penalty.
func (wc *WeightCache) MedianForBlockReward(hf hardfork.HardFork) int {
	var m int
	if hf >= hardfork.V1 && hf <= hardfork.V12 {
		m = wc.MedianShortTermWeight()
	} else {
		m = wc.EffectiveMedianBlockWeight(hf)
	}
	return maxInt(m, PenaltyFreeZone(hf))
}

func calculateEffectiveMedianBlockWeight(hf hardfork.HardFork, shortTermMedian, longTermMedian int) int {
	if hf >= hardfork.V1 && hf < hardfork.V10 {
		return maxInt(shortTermMedian, PenaltyFreeZone(hf))
	}

	ltMedian := maxInt(longTermMedian, penaltyFreeZoneV5)

	var effective int
	if hf >= hardfork.V10 && hf < hardfork.V15 {
		effective = minInt(maxInt(penaltyFreeZoneV5, shortTermMedian), 50*ltMedian)
	} else {
		effective = minInt(maxInt(ltMedian, shortTermMedian), 50*ltMedian)
	}

	return maxInt(effective, PenaltyFreeZone(hf))
}

// CalculateBlockLongTermWeight derives a block's contribution to the
// long-term weight window from its raw weight and the current long-term
// median.
func CalculateBlockLongTermWeight(hf hardfork.HardFork, blockWeight, longTermMedian int) int {
	if hf >= hardfork.V1 && hf < hardfork.V10 {
		return blockWeight
	}

	ltMedian := maxInt(PenaltyFreeZone(hf), longTermMedian)

	var shortTermConstraint, adjustedBlockWeight int
	if hf >= hardfork.V10 && hf < hardfork.V15 {
		shortTermConstraint = ltMedian + ltMedian*2/5
		adjustedBlockWeight = blockWeight
	} else {
		shortTermConstraint = ltMedian + ltMedian*7/10
		adjustedBlockWeight = maxInt(blockWeight, ltMedian*10/17)
	}

	return minInt(shortTermConstraint, adjustedBlockWeight)
}

func medianInt(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
