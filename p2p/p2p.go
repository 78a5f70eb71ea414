// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package p2p declares the peer-set contract the syncer and downloader use
// to discover and borrow peers, plus the chain-service contract the core
// exposes back to the downloader. No transport ships in this repository;
// p2ptest implements both in-memory for tests.
package p2p

import (
	"context"
	"time"

	"lukechampine.com/uint128"
)

// PeerID opaquely identifies a connected peer; the transport owns its
// actual representation (address, node ID, whatever the wire protocol
// uses).
type PeerID uint64

// ChainClaim is a peer's self-reported view of the best chain it has seen.
type ChainClaim struct {
	CumulativeDifficulty uint128.Uint128
	Height               uint64
	TopHash              [32]byte
}

// ChainRequest asks a peer for the block-hash list above a common ancestor
// derived from ids (a compact, newest-to-oldest history).
type ChainRequest struct {
	BlockIDs [][32]byte
	Prune    bool
}

// ChainResponse is a peer's reply to a ChainRequest.
type ChainResponse struct {
	BlockIDs             [][32]byte
	CumulativeDifficulty uint128.Uint128
	// FirstBlockHeight is the height blockIDs[0] would have if it is
	// unknown to us — i.e. the continuation point this peer claims after
	// whichever of our history hashes it recognized.
	FirstBlockHeight uint64
}

// GetObjectsRequest asks a peer to stream the raw block+tx bytes for a
// contiguous range of block hashes.
type GetObjectsRequest struct {
	BlockIDs [][32]byte
}

// GetObjectsResponse is a peer's reply: opaque block/tx payloads, one per
// requested hash, in the same order. The wire codec for these payloads
// belongs to the transport, not this package.
type GetObjectsResponse struct {
	Blocks [][]byte
}

// BanDuration classifies how long a misbehaving peer is penalized.
type BanDuration int

const (
	// BanShort covers soft protocol violations (e.g. a failed or timed-out
	// request) that might be transient.
	BanShort BanDuration = iota
	// BanMedium covers clear protocol violations (bad hash, malformed
	// payload, returning the wrong number of blocks).
	BanMedium
)

// Client is a handle to one connected peer, returned by PeerSet.Borrow and
// used to issue requests. Calling the release func Borrow returned makes it
// available to other borrowers again; PeerSet.Ban only marks it disfavored
// and does not release it.
type Client interface {
	ID() PeerID
	Claim() ChainClaim
	// PruningSeed reports the peer's self-advertised pruning seed, used to
	// prefer peers that actually store the range being requested. Zero
	// means the peer prunes nothing.
	PruningSeed() uint32

	SendChainRequest(ctx context.Context, req ChainRequest) (ChainResponse, error)
	SendGetObjects(ctx context.Context, req GetObjectsRequest) (GetObjectsResponse, error)
}

// PeerSet is the pool of currently connected peers the syncer and
// downloader draw from.
type PeerSet interface {
	// MostPoWSeen returns the highest chain claim any connected peer has
	// reported.
	MostPoWSeen() ChainClaim

	// PeersWithMorePoW returns the IDs of every connected peer whose claim
	// exceeds cumDiff.
	PeersWithMorePoW(cumDiff uint128.Uint128) []PeerID

	// Borrow returns a free client, preferring id if it is non-nil and
	// currently free. The returned release func must be called exactly
	// once when the caller is done with the client (returning it to the
	// pool), mirroring the teacher's connection-manager drop-guard
	// convention.
	Borrow(ctx context.Context, id *PeerID) (client Client, release func(), err error)

	// Ban marks id disfavored for d. It does not release a borrowed client;
	// the caller must still call its own release func if it still holds one.
	Ban(id PeerID, d BanDuration, reason string)
}

// ChainService is implemented by the core and handed to the downloader: it
// answers questions about our own chain without exposing the full store
// contract.
type ChainService interface {
	// CompactHistory returns a newest-to-oldest list combining recent block
	// hashes with sparse older checkpoints down to genesis, plus our
	// current cumulative difficulty — enough for a peer to locate a common
	// ancestor without us sending every hash.
	CompactHistory(ctx context.Context) (blockIDs [][32]byte, cumulativeDifficulty uint128.Uint128, err error)

	// FindFirstUnknown scans ids oldest-to-newest and returns the index of
	// the first one not present in our chain, and the height it would
	// occupy if appended there. ok is false if every hash is already known.
	FindFirstUnknown(ctx context.Context, ids [][32]byte) (index int, height uint64, ok bool, err error)

	CumulativeDifficulty(ctx context.Context) (uint128.Uint128, error)
}

// BlockDownloaderRequestTimeout bounds how long the downloader waits for a
// single peer response before treating it as "peer does not have data".
const BlockDownloaderRequestTimeout = 30 * time.Second
