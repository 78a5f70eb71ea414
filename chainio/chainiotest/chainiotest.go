// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainiotest implements chainio's ReadService and WriteService
// entirely in memory, for use in pipeline and context-service tests.
package chainiotest

import (
	"context"
	"fmt"
	"sync"

	"git.gammaspectra.live/monerod/consensus/chainio"
)

// Store is an in-memory blockchain store implementing both
// chainio.ReadService and chainio.WriteService.
type Store struct {
	mu sync.Mutex

	headers []chainio.ExtendedHeader
	hashes  [][32]byte
	coins   []uint64 // generated coins at each height, index-aligned with headers

	outputs              map[uint64]map[uint64]chainio.OutputOnChain
	numOutputsWithAmount map[uint64]uint64
	spentKeyImages       map[[32]byte]struct{}
}

// New returns an empty store; seed it with Append before use.
func New() *Store {
	return &Store{
		outputs:              make(map[uint64]map[uint64]chainio.OutputOnChain),
		numOutputsWithAmount: make(map[uint64]uint64),
		spentKeyImages:       make(map[[32]byte]struct{}),
	}
}

// Append adds a block's header and hash at the next height, and its
// cumulative generated-coins total.
func (s *Store) Append(header chainio.ExtendedHeader, hash [32]byte, generatedCoins uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headers = append(s.headers, header)
	s.hashes = append(s.hashes, hash)
	s.coins = append(s.coins, generatedCoins)
}

// AddOutput registers an output at (amount, globalIndex) so Outputs can
// resolve it as a ring member.
func (s *Store) AddOutput(amount, globalIndex uint64, out chainio.OutputOnChain) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outputs[amount] == nil {
		s.outputs[amount] = make(map[uint64]chainio.OutputOnChain)
	}
	s.outputs[amount][globalIndex] = out
	if globalIndex+1 > s.numOutputsWithAmount[amount] {
		s.numOutputsWithAmount[amount] = globalIndex + 1
	}
}

// MarkSpent records keyImage as spent, as WriteBlock would for a real
// commit's inputs.
func (s *Store) MarkSpent(keyImage [32]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spentKeyImages[keyImage] = struct{}{}
}

func (s *Store) ChainHeight(ctx context.Context) (uint64, [32]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.headers) == 0 {
		return 0, [32]byte{}, nil
	}
	return uint64(len(s.headers)), s.hashes[len(s.hashes)-1], nil
}

func (s *Store) GeneratedCoins(ctx context.Context, height uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if height >= uint64(len(s.coins)) {
		return 0, fmt.Errorf("chainiotest: height %d out of range", height)
	}
	return s.coins[height], nil
}

func (s *Store) BlockExtendedHeaderInRange(ctx context.Context, r chainio.HeightRange) ([]chainio.ExtendedHeader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.End > uint64(len(s.headers)) {
		return nil, fmt.Errorf("chainiotest: range end %d out of range", r.End)
	}
	out := make([]chainio.ExtendedHeader, 0, r.End-r.Start)
	for h := r.Start; h < r.End; h++ {
		out = append(out, s.headers[h])
	}
	return out, nil
}

func (s *Store) Outputs(ctx context.Context, amounts map[uint64][]uint64) (map[uint64]map[uint64]chainio.OutputOnChain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make(map[uint64]map[uint64]chainio.OutputOnChain, len(amounts))
	for amount, indices := range amounts {
		byIdx := make(map[uint64]chainio.OutputOnChain, len(indices))
		for _, idx := range indices {
			out, ok := s.outputs[amount][idx]
			if !ok {
				return nil, fmt.Errorf("chainiotest: no output at amount %d index %d", amount, idx)
			}
			byIdx[idx] = out
		}
		result[amount] = byIdx
	}
	return result, nil
}

func (s *Store) NumberOutputsWithAmount(ctx context.Context, amounts []uint64) (map[uint64]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uint64]uint64, len(amounts))
	for _, a := range amounts {
		out[a] = s.numOutputsWithAmount[a]
	}
	return out, nil
}

func (s *Store) KeyImagesSpent(ctx context.Context, keyImages map[[32]byte]struct{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ki := range keyImages {
		if _, spent := s.spentKeyImages[ki]; spent {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) FindFirstUnknown(ctx context.Context, ids [][32]byte) (int, uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	known := make(map[[32]byte]uint64, len(s.hashes))
	for i, h := range s.hashes {
		known[h] = uint64(i)
	}
	for i, id := range ids {
		if _, ok := known[id]; !ok {
			return i, uint64(len(s.headers)), true, nil
		}
	}
	return 0, 0, false, nil
}

func (s *Store) WriteBlock(ctx context.Context, block chainio.VerifiedBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headers = append(s.headers, block.Header)
	s.hashes = append(s.hashes, block.BlockHash)
	var prevCoins uint64
	if len(s.coins) > 0 {
		prevCoins = s.coins[len(s.coins)-1]
	}
	s.coins = append(s.coins, prevCoins)
	return nil
}

var (
	_ chainio.ReadService  = (*Store)(nil)
	_ chainio.WriteService = (*Store)(nil)
)
