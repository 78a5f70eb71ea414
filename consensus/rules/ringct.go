// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rules

import (
	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"git.gammaspectra.live/monerod/consensus/consensus/txtypes"
)

// grandfatheredTransactions lists the two transaction hashes that are
// allowed to keep using a RingCT type after the hard fork that banned that
// type for new transactions. Copied verbatim; these are historical facts
// about the chain, not something to be recomputed or approximated.
var grandfatheredTransactions = [2]txtypes.Hash{
	hashFromHex("c5151944f0583097ba0c88cd0f43e7fabb3881278aa2f73b3b0a007c5d34e910"),
	hashFromHex("6f2f117cde6fbcf8d4a6ef8974fcac744726574ac38cf25d3322c996b21edd4c"),
}

func hashFromHex(s string) txtypes.Hash {
	var h txtypes.Hash
	b := mustHexBytes(s)
	copy(h[:], b)
	return h
}

func mustHexBytes(s string) []byte {
	b := make([]byte, len(s)/2)
	for i := range b {
		hi := hexNibble(s[2*i])
		lo := hexNibble(s[2*i+1])
		b[i] = hi<<4 | lo
	}
	return b
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

func isGrandfathered(txHash txtypes.Hash) bool {
	for _, h := range grandfatheredTransactions {
		if h == txHash {
			return true
		}
	}
	return false
}

// checkRctType enforces that ty is allowed on the active hard fork.
//
// ref: check_rct_type, ring_ct.rs
func checkRctType(ty txtypes.RctType, hf hardfork.HardFork, txHash txtypes.Hash) error {
	switch {
	case (ty == txtypes.RctMlsagAggregate || ty == txtypes.RctMlsagIndividual) && hf >= hardfork.V4 && hf < hardfork.V9:
		return nil
	case ty == txtypes.RctBulletproofs && hf >= hardfork.V8 && hf < hardfork.V11:
		return nil
	case ty == txtypes.RctBulletproofsCompactAmount && hf >= hardfork.V10 && hf < hardfork.V14:
		return nil
	case ty == txtypes.RctBulletproofsCompactAmount && isGrandfathered(txHash):
		return nil
	case ty == txtypes.RctClsag && hf >= hardfork.V13 && hf < hardfork.V16:
		return nil
	case ty == txtypes.RctBulletproofsPlus && hf >= hardfork.V15:
		return nil
	default:
		return ruleError(ErrRingCTTypeNotAllowed, "RingCT type is not allowed on active hard fork")
	}
}

// AmountCommitmentVerifier checks the parts of RingCT semantics that need
// elliptic-curve arithmetic: range proofs and the pseudo-out/commitment
// balance equation. It is implemented outside this package by an adapter
// over the curve library, keeping this package free of direct curve
// dependencies.
type AmountCommitmentVerifier interface {
	// VerifyRangeProofs checks every output commitment's range proof for
	// the given RingCT type.
	VerifyRangeProofs(ty txtypes.RctType, commitments [][32]byte, rangeProofs []byte) error
	// CommitmentsBalance reports whether the sum of pseudoOuts equals the
	// sum of commitments plus fee*H.
	CommitmentsBalance(pseudoOuts, commitments [][32]byte, fee uint64) bool
}

// RingCTSemanticChecks runs every RingCT check that only needs the
// transaction itself (not its on-chain ring members): type gating, output
// amount/key-type shape, range proofs, and (for "simple" types) the
// pseudo-out balance equation.
//
// ref: ring_ct_semantic_checks, ring_ct.rs
func RingCTSemanticChecks(tx *txtypes.Transaction, txHash txtypes.Hash, hf hardfork.HardFork, verifier AmountCommitmentVerifier, rangeProofs []byte) error {
	if err := CheckOutputTypes(tx.Outputs, hf); err != nil {
		return err
	}
	if err := checkRctType(tx.RctType, hf, txHash); err != nil {
		return err
	}
	if err := verifier.VerifyRangeProofs(tx.RctType, tx.Commitments, rangeProofs); err != nil {
		return ruleError(ErrRingCTRangeProofInvalid, "range proof verification failed")
	}

	if tx.RctType != txtypes.RctMlsagAggregate {
		if !verifier.CommitmentsBalance(tx.PseudoOuts, tx.Commitments, tx.Fee) {
			return ruleError(ErrRingCTBalance, "pseudo-out commitments do not balance against outputs")
		}
	}

	return nil
}

// RingSignatureVerifier checks MLSAG/CLSAG ring signatures against a set of
// decoy rings. Implemented outside this package over the curve library.
type RingSignatureVerifier interface {
	// VerifyRing checks one input's signature against its ring of
	// candidate keys/commitments and its key image.
	VerifyRing(msg [32]byte, ring [][32]byte, keyImage [32]byte, pseudoOut [32]byte, sig []byte) error
	// VerifyAggregate checks an aggregate (pre-CLSAG, pre-individual-MLSAG)
	// signature spanning every input at once.
	VerifyAggregate(msg [32]byte, rings [][][32]byte, keyImages [][32]byte, commitments [][32]byte, fee uint64, sig []byte) error
}

// CheckInputSignatures verifies the transaction's ring signatures against
// the supplied decoy rings (one ring of candidate output keys/commitments
// per input, newest-last as the wire format has it).
//
// ref: check_input_signatures, ring_ct.rs
func CheckInputSignatures(msg [32]byte, inputs []txtypes.Input, tx *txtypes.Transaction, rings [][][32]byte, sig []byte, verifier RingSignatureVerifier) error {
	if len(rings) == 0 {
		return ruleError(ErrTxRingInvalid, "transaction has no rings")
	}

	if tx.RctType == txtypes.RctMlsagAggregate {
		keyImages := make([][32]byte, 0, len(inputs))
		for _, in := range inputs {
			if in.Kind != txtypes.InputToKey {
				return ruleError(ErrTxInputInvalid, "input not of type to_key")
			}
			keyImages = append(keyImages, in.KeyImage)
		}
		if err := verifier.VerifyAggregate(msg, rings, keyImages, tx.Commitments, tx.Fee, sig); err != nil {
			return ruleError(ErrRingSignatureInvalid, "aggregate ring signature verification failed")
		}
		return nil
	}

	for i, in := range inputs {
		if in.Kind != txtypes.InputToKey {
			return ruleError(ErrTxInputInvalid, "input not of type to_key")
		}
		var pseudoOut [32]byte
		if i < len(tx.PseudoOuts) {
			pseudoOut = tx.PseudoOuts[i]
		}
		if err := verifier.VerifyRing(msg, rings[i], in.KeyImage, pseudoOut, sig); err != nil {
			return ruleError(ErrRingSignatureInvalid, "ring signature verification failed")
		}
	}
	return nil
}
