// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rules

import "git.gammaspectra.live/monerod/consensus/consensus/txtypes"

// ClassicRingSignatureVerifier checks the original (pre-RingCT) per-input
// ring signatures used by VersionRingSignatures transactions. Implemented
// outside this package over the curve library.
type ClassicRingSignatureVerifier interface {
	// VerifyRing checks one input's ring signature: one signature share
	// per ring member, exactly one of which the signer could have produced
	// validly without knowing every ring member's private key.
	VerifyRing(msg [32]byte, ring [][32]byte, keyImage [32]byte, sig []byte) error
}

// CheckClassicRingSignatures verifies every input's ring signature for a
// pre-RingCT transaction.
func CheckClassicRingSignatures(msg [32]byte, inputs []txtypes.Input, rings [][][32]byte, sigs [][]byte, verifier ClassicRingSignatureVerifier) error {
	if len(rings) != len(inputs) || len(sigs) != len(inputs) {
		return ruleError(ErrTxRingInvalid, "ring signature count does not match input count")
	}

	for i, in := range inputs {
		if in.Kind != txtypes.InputToKey {
			return ruleError(ErrTxInputInvalid, "input not of type to_key")
		}
		if err := verifier.VerifyRing(msg, rings[i], in.KeyImage, sigs[i]); err != nil {
			return ruleError(ErrRingSignatureInvalid, "ring signature verification failed")
		}
	}
	return nil
}
