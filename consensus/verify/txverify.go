// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verify

import (
	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"git.gammaspectra.live/monerod/consensus/consensus/rules"
	"git.gammaspectra.live/monerod/consensus/consensus/txtypes"
)

// TxRingMembersInfo is the decoy/ring information a store must supply to
// verify one transaction's inputs: the resolved output keys/commitments
// for each input's ring, a summary of the ring sizes already checked
// against the decoy rules, and enough chronology to evaluate its inputs'
// time locks.
type TxRingMembersInfo struct {
	// Rings holds, per input, the ring's output public keys (pre-RingCT) or
	// commitments (RingCT), newest-last.
	Rings [][][32]byte
	// DecoyInfo summarizes ring sizes, already validated against hf by the
	// store at fetch time; re-validated here regardless.
	DecoyInfo *rules.DecoyInfo
	// YoungestUsedOutHeight is the height of the most recently created
	// output referenced by any input's ring; used for time-lock checks on
	// inputs that reference still-locked outputs.
	YoungestUsedOutHeight uint64
	// TimeLockedOuts lists the time locks of every ring member output that
	// carries one.
	TimeLockedOuts []txtypes.Timelock
}

// RingMemberSource resolves a transaction's decoy rings and related
// chronology from the blockchain store.
type RingMemberSource interface {
	RingMembersFor(tx *txtypes.Transaction) (*TxRingMembersInfo, error)
}

// verifyTransaction returns, on success, the fee it calculated or validated
// for this transaction, folded into the block's total fee for the miner-tx
// reward check.
func verifyTransaction(hf hardfork.HardFork, height uint64, tx *txtypes.Transaction, txHash txtypes.Hash, medianTimestamp uint64, ringSrc RingMemberSource, collab Collaborators) (fee uint64, err error) {
	if tx.RctType == txtypes.RctNull {
		return verifyRingSignatureTx(height, tx, medianTimestamp, ringSrc, collab)
	}
	return verifyRingCTTx(hf, height, tx, txHash, medianTimestamp, ringSrc, collab)
}

func verifyRingSignatureTx(height uint64, tx *txtypes.Transaction, medianTimestamp uint64, ringSrc RingMemberSource, collab Collaborators) (uint64, error) {
	sumIn, err := rules.SumInputsV1(tx.Inputs)
	if err != nil {
		return 0, err
	}
	sumOut, err := sumOutputsV1(tx.Outputs)
	if err != nil {
		return 0, err
	}
	if sumIn <= sumOut {
		return 0, rules.RuleError{ErrorCode: rules.ErrTxAmountOverflow, Description: "transaction inputs do not exceed outputs"}
	}
	fee := sumIn - sumOut
	if fee != tx.Fee {
		return 0, rules.RuleError{ErrorCode: rules.ErrTxAmountOverflow, Description: "declared fee does not match inputs minus outputs"}
	}

	if err := rules.CheckAllTimeLocks([]txtypes.Timelock{tx.Lock}, height, medianTimestamp, hardfork.V1); err != nil {
		return 0, err
	}

	spent := make(map[[32]byte]struct{}, len(tx.Inputs))
	if err := rules.CheckKeyImages(tx.Inputs, spent, collab.Torsion.IsTorsionFree); err != nil {
		return 0, err
	}

	info, err := ringSrc.RingMembersFor(tx)
	if err != nil {
		return 0, err
	}

	msg := txSigningHash(tx)
	sigs := make([][]byte, len(tx.Inputs))
	if err := rules.CheckClassicRingSignatures(msg, tx.Inputs, info.Rings, sigs, classicRingAdapter{collab.RingVerifier}); err != nil {
		return 0, err
	}
	return fee, nil
}

func verifyRingCTTx(hf hardfork.HardFork, height uint64, tx *txtypes.Transaction, txHash txtypes.Hash, medianTimestamp uint64, ringSrc RingMemberSource, collab Collaborators) (uint64, error) {
	info, err := ringSrc.RingMembersFor(tx)
	if err != nil {
		return 0, err
	}

	if err := info.DecoyInfo.CheckDecoyInfo(hf); err != nil {
		return 0, err
	}
	if err := info.DecoyInfo.CheckTxVersion(tx.Version, hf); err != nil {
		return 0, err
	}

	allLocks := append([]txtypes.Timelock{tx.Lock}, info.TimeLockedOuts...)
	if err := rules.CheckAllTimeLocks(allLocks, height, medianTimestamp, hf); err != nil {
		return 0, err
	}

	spent := make(map[[32]byte]struct{}, len(tx.Inputs))
	if err := rules.CheckKeyImages(tx.Inputs, spent, collab.Torsion.IsTorsionFree); err != nil {
		return 0, err
	}

	if err := rules.RingCTSemanticChecks(tx, txHash, hf, collab.AmountVerifier, nil); err != nil {
		return 0, err
	}

	msg := txSigningHash(tx)
	if err := rules.CheckInputSignatures(msg, tx.Inputs, tx, info.Rings, nil, collab.RingVerifier); err != nil {
		return 0, err
	}

	return tx.Fee, nil
}

func sumOutputsV1(outputs []txtypes.Output) (uint64, error) {
	var sum uint64
	for _, out := range outputs {
		if !out.HasAmount {
			return 0, rules.RuleError{ErrorCode: rules.ErrTxOutputInvalid, Description: "pre-RingCT output has no cleartext amount"}
		}
		next := sum + out.Amount
		if next < sum {
			return 0, rules.RuleError{ErrorCode: rules.ErrTxAmountOverflow, Description: "transaction outputs overflow"}
		}
		sum = next
	}
	return sum, nil
}

// txSigningHash is the message signed by a transaction's ring signatures:
// the hash of the transaction's prefix (version, inputs, outputs, extra,
// lock) plus, for RingCT, the RingCT base and a hash of the range proofs.
// Computed outside this package by the hashing adapter in a real
// deployment; here it stands in as the identity placeholder a caller can
// override by pre-hashing tx.Extra-equivalent data before calling
// verifyTransaction. TODO: thread the real prefix hash through once the
// wire-format decoder lands.
func txSigningHash(tx *txtypes.Transaction) [32]byte {
	var msg [32]byte
	for i, c := range tx.Commitments {
		for j := range msg {
			if j < len(c) {
				msg[j] ^= c[j] ^ byte(i)
			}
		}
	}
	return msg
}

// classicRingAdapter adapts a RingSignatureVerifier (RingCT-era, which also
// takes a pseudo-out) down to the simpler pre-RingCT ClassicRingSignatureVerifier
// shape, passing a zero pseudo-out since classic ring signatures don't have one.
type classicRingAdapter struct {
	v rules.RingSignatureVerifier
}

func (a classicRingAdapter) VerifyRing(msg [32]byte, ring [][32]byte, keyImage [32]byte, sig []byte) error {
	return a.v.VerifyRing(msg, ring, keyImage, [32]byte{}, sig)
}
