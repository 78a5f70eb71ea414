// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rules

import (
	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"git.gammaspectra.live/monerod/consensus/consensus/txtypes"
)

// IsDecomposedAmount reports whether amt is one of the "decomposed" values
// Monero historically required pre-RingCT outputs to use: a single
// significant digit (1-9) followed by zero or more trailing zeros, e.g. 7,
// 40, 900000. This kept the anonymity set for each output denomination
// from being trivially small.
func IsDecomposedAmount(amt uint64) bool {
	if amt == 0 {
		return true
	}
	for amt%10 == 0 {
		amt /= 10
	}
	return amt >= 1 && amt <= 9
}

// CheckOutputTypes enforces that every output in outputs matches the shape
// the active hard fork requires: an amount field consistent with whether
// RingCT output hiding is active (pre-RingCT outputs must carry a cleartext
// amount, RingCT outputs must not), and a target type consistent with
// whether view tags are active (txout_to_tagged_key only from V15 onward,
// txout_to_key only before it).
func CheckOutputTypes(outputs []txtypes.Output, hf hardfork.HardFork) error {
	ringct := hf >= hardfork.V2
	taggedKey := hf >= hardfork.V15
	for _, out := range outputs {
		if out.HasAmount == ringct {
			return ruleError(ErrTxOutputInvalid, "output amount visibility does not match active hard fork")
		}
		if (out.Kind == txtypes.OutputToTaggedKey) != taggedKey {
			return ruleError(ErrTxOutputInvalid, "output key type does not match active hard fork")
		}
	}
	return nil
}
