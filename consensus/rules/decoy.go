// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rules

import (
	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"git.gammaspectra.live/monerod/consensus/consensus/txtypes"
)

// DecoyInfo summarizes a transaction's inputs with respect to the decoy
// (ring member) rules. Building one does not by itself check anything;
// call CheckDecoyInfo on the result.
//
// Do not rely on NewDecoyInfo to perform consensus checks on its own.
type DecoyInfo struct {
	// Mixable is the number of inputs with enough outputs on chain to mix
	// with.
	Mixable int
	// NotMixable is the number of inputs that don't.
	NotMixable int
	// MinDecoys and MaxDecoys are the smallest and largest ring sizes
	// (decoys, i.e. ring size minus one) used by the transaction's inputs.
	MinDecoys int
	MaxDecoys int
}

// OutputCounter answers how many outputs of a given amount exist on chain;
// pre-RingCT amounts are looked up by cleartext value, RingCT inputs always
// query amount 0 (the "RingCT amount" bucket).
type OutputCounter interface {
	NumberOutputsWithAmount(amount uint64) (uint64, error)
}

// NewDecoyInfo builds a DecoyInfo for inputs under hf, consulting counts
// via the supplied OutputCounter.
//
// ref: DecoyInfo::new, inputs.rs
func NewDecoyInfo(inputs []txtypes.Input, hf hardfork.HardFork, counts OutputCounter) (*DecoyInfo, error) {
	info := &DecoyInfo{MinDecoys: int(^uint(0) >> 1), MaxDecoys: 0}
	minimum := minimumDecoys(hf)

	for _, in := range inputs {
		if in.Kind != txtypes.InputToKey {
			return nil, ruleError(ErrTxInputInvalid, "input is not of type to_key")
		}

		numOuts, err := counts.NumberOutputsWithAmount(in.Amount)
		if err != nil {
			return nil, err
		}

		// ref: decoys.html#mixable-and-unmixable-inputs
		if int(numOuts) <= minimum {
			info.NotMixable++
		} else {
			info.Mixable++
		}

		numDecoys := len(in.KeyOffsets) - 1
		if numDecoys < 0 {
			return nil, ruleError(ErrTxRingInvalid, "ring is empty")
		}
		if numDecoys < info.MinDecoys {
			info.MinDecoys = numDecoys
		}
		if numDecoys > info.MaxDecoys {
			info.MaxDecoys = numDecoys
		}
	}

	return info, nil
}

// CheckDecoyInfo validates the summarized ring sizes against hf's decoy
// rules.
//
// ref: DecoyInfo::check_decoy_info, inputs.rs
func (info *DecoyInfo) CheckDecoyInfo(hf hardfork.HardFork) error {
	if hf == hardfork.V15 {
		// V15 straddles the V14 and V16 decoy rules: either satisfies it.
		if err := info.CheckDecoyInfo(hardfork.V14); err == nil {
			return nil
		}
		return info.CheckDecoyInfo(hardfork.V16)
	}

	minimum := minimumDecoys(hf)

	if info.MinDecoys < minimum {
		if info.NotMixable == 0 {
			return ruleError(ErrTxRingInvalid, "input does not have enough decoys")
		}
		if info.Mixable > 1 {
			return ruleError(ErrTxInputInvalid, "more than one mixable input with unmixable inputs")
		}
	}

	if hf >= hardfork.V8 && info.MinDecoys != minimum {
		return ruleError(ErrTxRingInvalid, "one ring does not have the minimum number of decoys")
	}

	if hf >= hardfork.V12 && info.MinDecoys != info.MaxDecoys {
		return ruleError(ErrTxRingInvalid, "rings do not have the same number of members")
	}

	return nil
}

// CheckTxVersion enforces the transaction-version range allowed for hf,
// taking into account whether this transaction has unmixable inputs (which
// are grandfathered onto older, lower minimum versions).
//
// ref: DecoyInfo::check_tx_version, inputs.rs
func (info *DecoyInfo) CheckTxVersion(version txtypes.Version, hf hardfork.HardFork) error {
	if version == 0 {
		return ruleError(ErrTxVersion, "transaction version is invalid")
	}
	if uint64(version) > maxTxVersion(hf) {
		return ruleError(ErrTxVersion, "transaction version is invalid")
	}
	if uint64(version) < minTxVersion(hf) && info.NotMixable == 0 {
		return ruleError(ErrTxVersion, "transaction version is invalid")
	}
	return nil
}

func maxTxVersion(hf hardfork.HardFork) uint64 {
	if hf <= hardfork.V3 {
		return 1
	}
	return 2
}

func minTxVersion(hf hardfork.HardFork) uint64 {
	if hf >= hardfork.V6 {
		return 2
	}
	return 1
}

// minimumDecoys returns the minimum number of decoys for hf. There are
// exceptions to this always being the true minimum; see CheckDecoyInfo.
//
// ref: minimum_decoys, inputs.rs
func minimumDecoys(hf hardfork.HardFork) int {
	switch {
	case hf == hardfork.V1:
		// V1 transactions don't use ring signatures with decoys at all;
		// callers must never reach here for a V1 block.
		return 0
	case hf >= hardfork.V2 && hf <= hardfork.V5:
		return 2
	case hf == hardfork.V6:
		return 4
	case hf == hardfork.V7:
		return 6
	case hf >= hardfork.V8 && hf <= hardfork.V14:
		return 10
	default:
		return 15
	}
}

// SumInputsV1 sums pre-RingCT input amounts, checking for overflow.
//
// ref: sum_inputs_v1, inputs.rs
func SumInputsV1(inputs []txtypes.Input) (uint64, error) {
	var sum uint64
	for _, in := range inputs {
		if in.Kind != txtypes.InputToKey {
			return 0, ruleError(ErrTxInputInvalid, "input is not of type to_key")
		}
		next := sum + in.Amount
		if next < sum {
			return 0, ruleError(ErrTxAmountOverflow, "transaction inputs overflow")
		}
		sum = next
	}
	return sum, nil
}

// CheckKeyImages checks every input's key image is torsion-free and not
// already present in spentKeyImages, adding each to spentKeyImages as it
// goes. spentKeyImages need only cover a related batch of transactions
// (e.g. one block); checking against the full chain history is the
// caller's job.
//
// ref: check_key_images, inputs.rs
func CheckKeyImages(inputs []txtypes.Input, spentKeyImages map[[32]byte]struct{}, torsionFree func([32]byte) bool) error {
	for _, in := range inputs {
		if in.Kind != txtypes.InputToKey {
			return ruleError(ErrTxInputInvalid, "input is not of type to_key")
		}
		if !torsionFree(in.KeyImage) {
			return ruleError(ErrTxKeyImageTorsion, "key image has torsion")
		}
		if _, spent := spentKeyImages[in.KeyImage]; spent {
			return ruleError(ErrTxKeyImageSpent, "key image already spent")
		}
		spentKeyImages[in.KeyImage] = struct{}{}
	}
	return nil
}
