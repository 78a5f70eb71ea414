// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verify

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	ctxsvc "git.gammaspectra.live/monerod/consensus/consensus/context"
	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"git.gammaspectra.live/monerod/consensus/consensus/pow"
	"git.gammaspectra.live/monerod/consensus/consensus/rules"
	"git.gammaspectra.live/monerod/consensus/consensus/txtypes"
)

// TxParser turns a block's raw (still-serialized) regular transactions
// into verification-ready records, keyed and ordered per the block's
// declared tx_hashes.
type TxParser interface {
	Parse(raw [][]byte, txHashes []txtypes.Hash) (PreparedTxSet, error)
}

// BatchPrepareMainChain runs Stage A over a contiguous batch of candidate
// blocks extending the chain's current main-chain tip: it computes block
// hashes and chain linkage in parallel, fetches the batch's expected
// difficulties and hard fork from ctxSvc, constructs any newly-required
// RandomX VM, then checks each block's proof of work and parses its
// transactions — all embarrassingly parallel once the per-batch context is
// known.
//
// blocks and rawTxs must be the same length and in height order. startHeight
// is the height of blocks[0].
func BatchPrepareMainChain(ctx context.Context, startHeight uint64, blocks []RawBlock, rawTxs [][][]byte, ctxSvc *ctxsvc.Service, hasher Hasher, txParser TxParser, vmBuilder ctxsvc.VMBuilder) (*PreparedBatch, error) {
	if len(blocks) == 0 {
		return nil, ruleFail(startHeight, rules.RuleError{ErrorCode: rules.ErrBlockHeaderInvalid, Description: "no blocks to verify"})
	}

	prepared, err := hashBlocksParallel(startHeight, blocks, hasher)
	if err != nil {
		return nil, err
	}

	topHF := prepared[len(prepared)-1].HFVersion

	var newRXVMHeight uint64
	var newRXVMSeed txtypes.Hash
	haveNewRXVM := false

	for i := 0; i+1 < len(prepared); i++ {
		a, b := prepared[i], prepared[i+1]
		if a.HFVersion > topHF {
			return nil, ruleFail(a.Height, rules.RuleError{ErrorCode: rules.ErrBlockHeaderInvalid, Description: "block in batch has a higher hard fork than the batch's last block"})
		}
		if a.BlockHash != b.Raw.PrevID || a.Height+1 != b.Height {
			return nil, ruleFail(b.Height, rules.RuleError{ErrorCode: rules.ErrBlockHeaderInvalid, Description: "blocks in batch do not form a chain"})
		}
		if isRandomXSeedHeight(a.Height) && topHF >= hardfork.V12 {
			newRXVMHeight, newRXVMSeed, haveNewRXVM = a.Height, a.BlockHash, true
		}
	}

	blockchainCtx, err := ctxSvc.GetContext(ctx)
	if err != nil {
		return nil, envFail(prepared[0].Height, err)
	}
	if blockchainCtx.ChainHeight != prepared[0].Height {
		return nil, ruleFail(prepared[0].Height, rules.RuleError{ErrorCode: rules.ErrMinerTxInvalid, Description: "batch does not start at the chain's current height"})
	}
	if blockchainCtx.TopBlockHash != [32]byte(prepared[0].Raw.PrevID) {
		return nil, ruleFail(prepared[0].Height, rules.RuleError{ErrorCode: rules.ErrBlockHeaderInvalid, Description: "batch does not extend the current chain tip"})
	}

	heights := make([]uint64, len(prepared))
	for i, p := range prepared {
		heights[i] = p.Height
	}
	difficulties, err := ctxSvc.BatchGetDifficulties(ctx, heights)
	if err != nil {
		return nil, envFail(prepared[0].Height, err)
	}

	if haveNewRXVM && vmBuilder != nil {
		vm, err := vmBuilder.NewVM(newRXVMSeed)
		if err != nil {
			return nil, envFail(newRXVMHeight, err)
		}
		if err := ctxSvc.NewRXVM(ctx, newRXVMHeight, vm); err != nil {
			return nil, envFail(newRXVMHeight, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	txSets := make([]PreparedTxSet, len(prepared))
	for i := range prepared {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			vm, err := ctxSvc.GetCurrentRxVM(gctx, prepared[i].Height)
			if err != nil {
				return envFail(prepared[i].Height, err)
			}
			powHash, err := hasher.PoWHash(prepared[i].Raw, prepared[i].HFVersion, prepared[i].Height, vm)
			if err != nil {
				return envFail(prepared[i].Height, err)
			}
			prepared[i].PoWHash = powHash

			diffBig := difficulties[i].Big()
			if !rules.CheckProofOfWork(powHash, diffBig) {
				return ruleFail(prepared[i].Height, rules.RuleError{ErrorCode: rules.ErrProofOfWorkInvalid, Description: "block does not meet the required difficulty"})
			}

			txSet, err := txParser.Parse(rawTxs[i], prepared[i].Raw.TxHashes)
			if err != nil {
				return ruleFail(prepared[i].Height, err)
			}
			txSets[i] = txSet
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &PreparedBatch{Blocks: prepared, Txs: txSets}, nil
}

func hashBlocksParallel(startHeight uint64, blocks []RawBlock, hasher Hasher) ([]PreparedBlock, error) {
	out := make([]PreparedBlock, len(blocks))
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range blocks {
		i := i
		g.Go(func() error {
			version, err := hardfork.FromVersion(blocks[i].MajorVersion)
			if err != nil {
				return ruleFail(startHeight+uint64(i), rules.RuleError{ErrorCode: rules.ErrBlockHeaderInvalid, Description: "block has an unknown hard-fork version"})
			}
			out[i] = PreparedBlock{
				Raw:       blocks[i],
				Height:    startHeight + uint64(i),
				BlockHash: hasher.BlockHash(blocks[i]),
				HFVersion: version,
				HFVote:    hardfork.FromVote(blocks[i].MinorVersion),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// isRandomXSeedHeight reports whether height is one at which the RandomX
// seed hash changes.
//
// ref: randomx.SeedHeight / SeedHashEpochBlocks in the P2Pool node's
// RandomX binding.
func isRandomXSeedHeight(height uint64) bool {
	return pow.IsSeedHeight(height)
}
