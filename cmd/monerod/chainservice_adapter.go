// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"lukechampine.com/uint128"

	ctxsvc "git.gammaspectra.live/monerod/consensus/consensus/context"
)

// chainServiceAdapter implements p2p.ChainService over the context
// service and a read-only store, the "core exposes itself back to the
// downloader" collaborator named in the external-interfaces contract.
type chainServiceAdapter struct {
	ctxSvc *ctxsvc.Service
	store  storeAdapter
}

func (c chainServiceAdapter) CompactHistory(ctx context.Context) ([][32]byte, uint128.Uint128, error) {
	bctx, err := c.ctxSvc.GetContext(ctx)
	if err != nil {
		return nil, uint128.Uint128{}, err
	}
	// A full implementation walks back through sparse checkpoints to
	// genesis; this development entrypoint's store has no real block
	// history to checkpoint against, so it reports only the current tip.
	return [][32]byte{bctx.TopBlockHash}, bctx.CumulativeDifficulty, nil
}

func (c chainServiceAdapter) FindFirstUnknown(ctx context.Context, ids [][32]byte) (int, uint64, bool, error) {
	return c.store.read.FindFirstUnknown(ctx, ids)
}

func (c chainServiceAdapter) CumulativeDifficulty(ctx context.Context) (uint128.Uint128, error) {
	bctx, err := c.ctxSvc.GetContext(ctx)
	if err != nil {
		return uint128.Uint128{}, err
	}
	return bctx.CumulativeDifficulty, nil
}
