// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"lukechampine.com/uint128"

	"git.gammaspectra.live/monerod/consensus/chainio"
)

// storeAdapter satisfies consensus/context's chainStore and related source
// interfaces over a chainio.ReadService, translating its context-taking
// methods to the synchronous calls the context actor makes on its own
// single goroutine. Store calls are expected to be fast/local (the
// interface exists to decouple the actor from a concrete store, not to
// support cancellation mid-load); context.Background() is used throughout.
type storeAdapter struct {
	read chainio.ReadService
}

func (a storeAdapter) ChainHeight() (uint64, [32]byte, error) {
	return a.read.ChainHeight(context.Background())
}

func (a storeAdapter) GeneratedCoins() (uint64, error) {
	height, _, err := a.read.ChainHeight(context.Background())
	if err != nil {
		return 0, err
	}
	if height == 0 {
		return 0, nil
	}
	return a.read.GeneratedCoins(context.Background(), height-1)
}

func (a storeAdapter) TimestampsInRange(start, end uint64) ([]uint64, error) {
	headers, err := a.read.BlockExtendedHeaderInRange(context.Background(), chainio.HeightRange{Start: start, End: end})
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(headers))
	for i, h := range headers {
		out[i] = h.Timestamp
	}
	return out, nil
}

func (a storeAdapter) CumulativeDifficultyAt(height uint64) (uint128.Uint128, error) {
	headers, err := a.read.BlockExtendedHeaderInRange(context.Background(), chainio.HeightRange{Start: height, End: height + 1})
	if err != nil {
		return uint128.Uint128{}, err
	}
	if len(headers) == 0 {
		return uint128.Uint128{}, nil
	}
	return headers[0].CumulativeDifficulty, nil
}

func (a storeAdapter) BlockWeightsInRange(start, end uint64) ([]int, []int, error) {
	headers, err := a.read.BlockExtendedHeaderInRange(context.Background(), chainio.HeightRange{Start: start, End: end})
	if err != nil {
		return nil, nil, err
	}
	weights := make([]int, len(headers))
	longTerm := make([]int, len(headers))
	for i, h := range headers {
		weights[i] = h.BlockWeight
		longTerm[i] = h.LongTermWeight
	}
	return weights, longTerm, nil
}

func (a storeAdapter) SeedHashAt(height uint64) ([32]byte, error) {
	headers, err := a.read.BlockExtendedHeaderInRange(context.Background(), chainio.HeightRange{Start: height, End: height + 1})
	if err != nil {
		return [32]byte{}, err
	}
	if len(headers) == 0 {
		return [32]byte{}, nil
	}
	return headers[0].BlockHash, nil
}
