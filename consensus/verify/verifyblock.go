// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verify

import (
	"context"

	ctxsvc "git.gammaspectra.live/monerod/consensus/consensus/context"
	"git.gammaspectra.live/monerod/consensus/consensus/rules"
	"git.gammaspectra.live/monerod/consensus/consensus/txtypes"
)

// OutputCounter, AmountCommitmentVerifier and RingSignatureVerifier mirror
// the rule package's collaborator interfaces; VerifyBlock needs one of
// each to run the RingCT/ring-signature checks that require access to the
// chain's historical outputs and curve arithmetic.
type OutputCounter = rules.OutputCounter
type AmountCommitmentVerifier = rules.AmountCommitmentVerifier
type RingSignatureVerifier = rules.RingSignatureVerifier

// TorsionChecker reports whether a key is a member of the prime-order
// subgroup (i.e. free of small-order torsion).
type TorsionChecker interface {
	IsTorsionFree(point [32]byte) bool
}

// SpentKeyImageSource answers whether a key image has already been spent
// somewhere earlier in the chain (not just earlier in the same block,
// which CheckKeyImages already covers within a block).
type SpentKeyImageSource interface {
	Spent(keyImage [32]byte) (bool, error)
}

// Collaborators bundles every external verifier VerifyBlock needs beyond
// the context service. All are implemented over the P2Pool Monero
// cryptography library outside this package.
type Collaborators struct {
	RingMembers   RingMemberSource
	AmountVerifier AmountCommitmentVerifier
	RingVerifier  RingSignatureVerifier
	SpentKeyImages SpentKeyImageSource
	Torsion       TorsionChecker
	// LongTermWeight derives a block's contribution to the long-term
	// weight window (see consensus/context.CalculateBlockLongTermWeight);
	// passed in rather than imported so this package stays independent of
	// the context package's weight-cache internals.
	LongTermWeight func(blockWeight int) int
}

// maxFutureTimeSeconds bounds how far in the future a block's timestamp
// may be relative to the time it is received.
const maxFutureTimeSeconds = 2 * 60 * 60

// VerifyBlock runs Stage B's sequential, state-dependent checks against a
// single prepared block (already hashed, PoW-checked, and tx-parsed by
// BatchPrepareMainChain), then folds the accepted block into the context
// service so the next call sees it.
//
// Blocks must be verified in height order: each call's result depends on
// the context left behind by the previous one. now is the wall-clock time
// the block was received, used for the timestamp-too-far-in-future check.
func VerifyBlock(ctx context.Context, block PreparedBlock, txs PreparedTxSet, now uint64, ctxSvc *ctxsvc.Service, collab Collaborators) error {
	bctx, err := ctxSvc.GetContext(ctx)
	if err != nil {
		return envFail(block.Height, err)
	}

	hdr := &rules.BlockHeader{
		MajorVersion: uint8(block.HFVersion),
		MinorVersion: uint8(block.HFVote),
		Timestamp:    block.Raw.Timestamp,
		PrevID:       block.Raw.PrevID,
		Height:       block.Height,
	}
	if _, _, err := rules.CheckBlockHeaderVersion(hdr, bctx.CurrentHardFork); err != nil {
		return ruleFail(block.Height, err)
	}
	if err := rules.CheckBlockHeaderPrevID(hdr, txtypes.Hash(bctx.TopBlockHash)); err != nil {
		return ruleFail(block.Height, err)
	}
	if bctx.HasMedianTimestamp {
		if err := rules.CheckBlockHeaderTimestamp(block.Raw.Timestamp, bctx.MedianTimestampWindow60, maxFutureTimeSeconds, now); err != nil {
			return ruleFail(block.Height, err)
		}
	}

	if block.Raw.Weight > 2*bctx.EffectiveMedianWeight {
		return ruleFail(block.Height, rules.RuleError{ErrorCode: rules.ErrBlockHeaderInvalid, Description: "block weight exceeds twice the effective median"})
	}

	seenTxHashes := make(map[txtypes.Hash]struct{}, len(block.Raw.TxHashes))
	var totalFees uint64
	for i, tx := range txs.Ordered {
		txHash := block.Raw.TxHashes[i]
		if _, dup := seenTxHashes[txHash]; dup {
			return ruleFail(block.Height, rules.RuleError{ErrorCode: rules.ErrTxInputInvalid, Description: "duplicate transaction hash within block"})
		}
		seenTxHashes[txHash] = struct{}{}

		spent, err := keyImagesSpentOnChain(tx, collab.SpentKeyImages)
		if err != nil {
			return envFail(block.Height, err)
		}
		if spent {
			return ruleFail(block.Height, rules.RuleError{ErrorCode: rules.ErrTxKeyImageSpent, Description: "transaction spends an already-spent key image"})
		}

		fee, err := verifyTransaction(block.HFVersion, block.Height, tx, txHash, bctx.MedianTimestampWindow60, collab.RingMembers, collab)
		if err != nil {
			return ruleFail(block.Height, err)
		}
		totalFees += fee
	}

	reward, err := rules.CheckMinerTx(&block.Raw.MinerTx, totalFees, block.Height, block.Raw.Weight, bctx.MedianWeightForReward, bctx.AlreadyGeneratedCoins, block.HFVersion)
	if err != nil {
		return ruleFail(block.Height, err)
	}

	longTermWeight := block.Raw.Weight
	if collab.LongTermWeight != nil {
		longTermWeight = collab.LongTermWeight(block.Raw.Weight)
	}

	update := ctxsvc.NewBlockData{
		Height:               block.Height,
		BlockHash:            [32]byte(block.BlockHash),
		Timestamp:            block.Raw.Timestamp,
		Weight:               block.Raw.Weight,
		LongTermWeight:       longTermWeight,
		CumulativeDifficulty: bctx.NextDifficulty,
		GeneratedCoins:       reward,
		Vote:                 block.HFVote,
	}
	if err := ctxSvc.Update(ctx, update); err != nil {
		return envFail(block.Height, err)
	}
	return nil
}

func keyImagesSpentOnChain(tx *txtypes.Transaction, src SpentKeyImageSource) (bool, error) {
	if src == nil {
		return false, nil
	}
	for _, in := range tx.Inputs {
		if in.Kind != txtypes.InputToKey {
			continue
		}
		spent, err := src.Spent(in.KeyImage)
		if err != nil {
			return false, err
		}
		if spent {
			return true, nil
		}
	}
	return false, nil
}
