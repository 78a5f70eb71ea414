// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package context

import (
	"sort"

	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"lukechampine.com/uint128"
)

// Difficulty retarget window constants.
//
// ref: consensus/src/pow/difficulty.rs
const (
	difficultyWindow              = 720
	difficultyCut                 = 60
	difficultyLag                 = 15
	difficultyBlocksCount         = difficultyWindow + difficultyLag
	difficultyAccountedWindowSize = difficultyWindow - 2*difficultyCut
)

// BlockTimestampWindowSize is the number of most recent blocks used to
// compute a chain's median timestamp (used for both the timestamp rule and
// the context's cached median).
const BlockTimestampWindowSize = 60

// DifficultyCache tracks the rolling timestamp/cumulative-difficulty window
// needed to compute the next block's required difficulty without
// re-reading the whole window from the store on every block.
//
// Not safe for concurrent use; callers serialize access through the context
// service's single-writer actor.
type DifficultyCache struct {
	// timestamps holds at most difficultyBlocksCount most-recent block
	// timestamps, oldest first.
	timestamps []uint64
	// windowedWork is the cumulative difficulty delta across the
	// difficultyAccountedWindowSize-sized inner window.
	windowedWork uint128.Uint128
	// lastAccountedHeight is the height of the most recent block folded in.
	lastAccountedHeight uint64
}

// BlockTimestampSource answers historical timestamp/cumulative-difficulty
// queries the difficulty cache needs to initialize or resynchronize.
type BlockTimestampSource interface {
	// TimestampsInRange returns the timestamps of blocks [start, end),
	// oldest first.
	TimestampsInRange(start, end uint64) ([]uint64, error)
	// CumulativeDifficultyAt returns the cumulative difficulty through and
	// including the block at height.
	CumulativeDifficultyAt(height uint64) (uint128.Uint128, error)
}

// NewDifficultyCache initializes a DifficultyCache at chainHeight (the
// height one past the current tip) by loading the trailing difficulty
// window from src.
func NewDifficultyCache(chainHeight uint64, src BlockTimestampSource) (*DifficultyCache, error) {
	start := saturatingSub(chainHeight, difficultyBlocksCount)
	timestamps, err := src.TimestampsInRange(start, chainHeight)
	if err != nil {
		return nil, err
	}

	dc := &DifficultyCache{
		timestamps:          timestamps,
		lastAccountedHeight: saturatingSub(chainHeight, 1),
	}
	if err := dc.updateWindowedWork(src); err != nil {
		return nil, err
	}
	return dc, nil
}

// AddBlock folds a newly accepted block's timestamp and cumulative
// difficulty into the cache. height must be exactly one more than the
// cache's last accounted height.
func (dc *DifficultyCache) AddBlock(height, timestamp uint64, src BlockTimestampSource) error {
	dc.timestamps = append(dc.timestamps, timestamp)
	if over := len(dc.timestamps) - difficultyBlocksCount; over > 0 {
		dc.timestamps = dc.timestamps[over:]
	}
	dc.lastAccountedHeight = height
	return dc.updateWindowedWork(src)
}

func (dc *DifficultyCache) updateWindowedWork(src BlockTimestampSource) error {
	if len(dc.timestamps) == 0 {
		// A chain with no blocks yet (not even genesis persisted) has no
		// window to account for; avoid querying the store with an
		// underflowed height below.
		dc.windowedWork = uint128.Uint128{}
		return nil
	}

	blockStart := saturatingSub(dc.lastAccountedHeight+1, difficultyBlocksCount)
	start, end := windowStartEnd(len(dc.timestamps))

	low, err := src.CumulativeDifficultyAt(blockStart + uint64(start))
	if err != nil {
		return err
	}
	high, err := src.CumulativeDifficultyAt(blockStart + uint64(end) - 1)
	if err != nil {
		return err
	}
	dc.windowedWork = high.Sub(low)
	return nil
}

// NextDifficulty computes the required difficulty for the block following
// the cache's current tip under hf.
func (dc *DifficultyCache) NextDifficulty(hf hardfork.HardFork) uint128.Uint128 {
	if len(dc.timestamps) <= 1 {
		return uint128.From64(1)
	}

	sorted := make([]uint64, len(dc.timestamps))
	copy(sorted, dc.timestamps)
	if len(sorted) > difficultyWindow {
		sorted = sorted[:difficultyWindow]
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	start, end := windowStartEnd(len(sorted))
	timeSpan := sorted[end-1] - sorted[start]
	if timeSpan == 0 {
		timeSpan = 1
	}

	target := targetTimeForHardFork(hf)
	numerator := dc.windowedWork.Mul64(uint64(target)).Add64(timeSpan - 1)
	return numerator.Div64(timeSpan)
}

// MedianTimestamp returns the median timestamp over the most recent window
// most-recent blocks in the cache, used for the block-header timestamp
// rule. It returns (0, false) when fewer than window timestamps are known
// yet (e.g. early chain), in which case callers should skip the rule.
func (dc *DifficultyCache) MedianTimestamp(window int) (uint64, bool) {
	if len(dc.timestamps) < window {
		return 0, false
	}
	recent := dc.timestamps[len(dc.timestamps)-window:]
	sorted := make([]uint64, len(recent))
	copy(sorted, recent)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return median(sorted), true
}

// TipTimestamp returns the timestamp of the most recently folded-in block,
// and false if the cache has no blocks yet (genesis).
func (dc *DifficultyCache) TipTimestamp() (uint64, bool) {
	if len(dc.timestamps) == 0 {
		return 0, false
	}
	return dc.timestamps[len(dc.timestamps)-1], true
}

// CumulativeDifficulty returns the windowed work tracked by the cache. This
// is not the chain's true all-time cumulative difficulty — callers that
// need that value track it separately alongside the cache (see Service).
func (dc *DifficultyCache) CumulativeDifficulty() uint128.Uint128 {
	return dc.windowedWork
}

func windowStartEnd(windowLen int) (start, end int) {
	if windowLen > difficultyWindow {
		windowLen = difficultyWindow
	}
	if windowLen <= difficultyAccountedWindowSize {
		return 0, windowLen
	}
	start = (windowLen - difficultyAccountedWindowSize + 1) / 2
	return start, start + difficultyAccountedWindowSize
}

func targetTimeForHardFork(hf hardfork.HardFork) uint64 {
	if hf == hardfork.V1 {
		return 60
	}
	return 120
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

func median(sorted []uint64) uint64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
