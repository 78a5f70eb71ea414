// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package p2ptest implements p2p's PeerSet, Client and ChainService
// entirely in memory, for use in syncer and downloader tests.
package p2ptest

import (
	"context"
	"fmt"
	"sync"

	"lukechampine.com/uint128"

	"git.gammaspectra.live/monerod/consensus/p2p"
)

// FakeClient is an in-memory p2p.Client backed by a fixed script of
// responses a test configures up front.
type FakeClient struct {
	id          p2p.PeerID
	claim       p2p.ChainClaim
	pruningSeed uint32

	ChainResp   p2p.ChainResponse
	ObjectsResp p2p.GetObjectsResponse
	Err         error
}

func (c *FakeClient) ID() p2p.PeerID       { return c.id }
func (c *FakeClient) Claim() p2p.ChainClaim { return c.claim }
func (c *FakeClient) PruningSeed() uint32   { return c.pruningSeed }

func (c *FakeClient) SendChainRequest(ctx context.Context, req p2p.ChainRequest) (p2p.ChainResponse, error) {
	if c.Err != nil {
		return p2p.ChainResponse{}, c.Err
	}
	return c.ChainResp, nil
}

func (c *FakeClient) SendGetObjects(ctx context.Context, req p2p.GetObjectsRequest) (p2p.GetObjectsResponse, error) {
	if c.Err != nil {
		return p2p.GetObjectsResponse{}, c.Err
	}
	return c.ObjectsResp, nil
}

// PeerSet is an in-memory p2p.PeerSet over a fixed set of FakeClients.
type PeerSet struct {
	mu      sync.Mutex
	clients map[p2p.PeerID]*FakeClient
	banned  map[p2p.PeerID]p2p.BanDuration
}

// NewPeerSet constructs an empty peer set.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		clients: make(map[p2p.PeerID]*FakeClient),
		banned:  make(map[p2p.PeerID]p2p.BanDuration),
	}
}

// AddPeer registers a client under id with the given chain claim and
// pruning seed; subsequent Borrow/MostPoWSeen calls see it.
func (s *PeerSet) AddPeer(id p2p.PeerID, claim p2p.ChainClaim, pruningSeed uint32) *FakeClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &FakeClient{id: id, claim: claim, pruningSeed: pruningSeed}
	s.clients[id] = c
	return c
}

func (s *PeerSet) MostPoWSeen() p2p.ChainClaim {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best p2p.ChainClaim
	for _, c := range s.clients {
		if c.claim.CumulativeDifficulty.Cmp(best.CumulativeDifficulty) > 0 {
			best = c.claim
		}
	}
	return best
}

func (s *PeerSet) PeersWithMorePoW(cumDiff uint128.Uint128) []p2p.PeerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []p2p.PeerID
	for id, c := range s.clients {
		if _, banned := s.banned[id]; banned {
			continue
		}
		if c.claim.CumulativeDifficulty.Cmp(cumDiff) > 0 {
			out = append(out, id)
		}
	}
	return out
}

func (s *PeerSet) Borrow(ctx context.Context, id *p2p.PeerID) (p2p.Client, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != nil {
		c, ok := s.clients[*id]
		if !ok {
			return nil, nil, fmt.Errorf("p2ptest: no such peer %d", *id)
		}
		return c, func() {}, nil
	}
	for pid, c := range s.clients {
		if _, banned := s.banned[pid]; !banned {
			return c, func() {}, nil
		}
	}
	return nil, nil, fmt.Errorf("p2ptest: no free peer available")
}

func (s *PeerSet) Ban(id p2p.PeerID, d p2p.BanDuration, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banned[id] = d
}

// ChainService is an in-memory p2p.ChainService implementation: it reports
// whatever history/difficulty a test sets directly.
type ChainService struct {
	mu sync.Mutex

	History       [][32]byte
	CumDiff       uint128.Uint128
	UnknownIndex  int
	UnknownHeight uint64
	HasUnknown    bool
}

func (c *ChainService) CompactHistory(ctx context.Context) ([][32]byte, uint128.Uint128, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.History, c.CumDiff, nil
}

func (c *ChainService) FindFirstUnknown(ctx context.Context, ids [][32]byte) (int, uint64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.UnknownIndex, c.UnknownHeight, c.HasUnknown, nil
}

func (c *ChainService) CumulativeDifficulty(ctx context.Context) (uint128.Uint128, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CumDiff, nil
}

var (
	_ p2p.PeerSet      = (*PeerSet)(nil)
	_ p2p.ChainService = (*ChainService)(nil)
	_ p2p.Client       = (*FakeClient)(nil)
)
