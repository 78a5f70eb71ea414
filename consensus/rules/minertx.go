// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2015 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rules

import (
	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"git.gammaspectra.live/monerod/consensus/consensus/txtypes"
	"lukechampine.com/uint128"
)

// moneySupply is not actually a supply cap; it is the value the reward
// formula subtracts already-generated coins from, chosen as the largest
// representable uint64 so the reward curve approaches zero smoothly
// instead of hitting a cliff.
const moneySupply uint64 = 1<<64 - 1

// minimumRewardPerMinute is the per-minute floor block reward, i.e. the
// tail emission.
const minimumRewardPerMinute uint64 = 3 * 100000000000

// minerTxTimeLockedBlocks is how many blocks past the current height a
// coinbase output's time lock must require.
const minerTxTimeLockedBlocks = 60

// maxBlockHeight bounds the block-height form of a time lock; values above
// it are timestamps instead. It is a safety net only: a correctly computed
// miner-tx lock height is always far below this.
const maxBlockHeight = 500000000

// CalculateBaseReward computes the block reward before the block-weight
// penalty is applied.
//
// ref: calculate_base_reward, miner_tx.rs
func CalculateBaseReward(alreadyGeneratedCoins uint64, hf hardfork.HardFork) uint64 {
	targetMins := uint(hf.BlockTime().Seconds()) / 60
	emissionSpeedFactor := 20 - (targetMins - 1)
	base := (moneySupply - alreadyGeneratedCoins) >> emissionSpeedFactor
	floor := minimumRewardPerMinute * uint64(targetMins)
	if base < floor {
		return floor
	}
	return base
}

// CalculateBlockReward computes the miner reward for a block of the given
// weight, applying the quadratic penalty once the block exceeds the
// effective median weight.
//
// ref: calculate_block_reward, miner_tx.rs
func CalculateBlockReward(blockWeight, medianWeight int, alreadyGeneratedCoins uint64, hf hardfork.HardFork) uint64 {
	base := CalculateBaseReward(alreadyGeneratedCoins, hf)
	if blockWeight <= medianWeight {
		return base
	}

	multiplicand := uint64(2*medianWeight-blockWeight) * uint64(blockWeight)
	effectiveMedian := uint64(medianWeight)

	// base*multiplicand can overflow 64 bits well before the two divisions
	// below bring the value back down, so the intermediate is carried in
	// 128 bits, mirroring the reference's u128 arithmetic.
	product := uint128.From64(base).Mul(uint128.From64(multiplicand))
	return product.Div64(effectiveMedian).Div64(effectiveMedian).Big().Uint64()
}

// checkMinerTxVersion enforces that the miner transaction becomes RingCT
// once the network requires it.
//
// ref: check_miner_tx_version, miner_tx.rs
func checkMinerTxVersion(tx *txtypes.Transaction, hf hardfork.HardFork) error {
	if hf >= hardfork.V12 && tx.Version != txtypes.VersionRingCT {
		return ruleError(ErrMinerTxInvalid, "miner transaction version invalid for active hard fork")
	}
	return nil
}

// checkMinerTxInputs enforces the miner transaction has exactly one Gen
// input naming the current chain height.
//
// ref: check_inputs, miner_tx.rs
func checkMinerTxInputs(inputs []txtypes.Input, chainHeight uint64) error {
	if len(inputs) != 1 {
		return ruleError(ErrMinerTxInvalid, "miner transaction must have exactly one input")
	}
	in := inputs[0]
	if in.Kind != txtypes.InputGen {
		return ruleError(ErrMinerTxInvalid, "miner transaction input is not of type gen")
	}
	if in.Gen != chainHeight {
		return ruleError(ErrMinerTxInvalid, "miner transaction input height is incorrect")
	}
	return nil
}

// checkMinerTxTimeLock enforces the miner transaction's time lock is
// exactly chainHeight + minerTxTimeLockedBlocks.
//
// ref: check_time_lock, miner_tx.rs
func checkMinerTxTimeLock(lock txtypes.Timelock, chainHeight uint64) error {
	if lock.Kind != txtypes.TimelockBlock {
		return ruleError(ErrMinerTxInvalid, "miner transaction lock time is not a block height")
	}
	if lock.Height > maxBlockHeight {
		return ruleError(ErrMinerTxInvalid, "miner transaction lock height out of range")
	}
	if lock.Height != chainHeight+minerTxTimeLockedBlocks {
		return ruleError(ErrMinerTxInvalid, "miner transaction lock height incorrect")
	}
	return nil
}

// sumMinerTxOutputs sums the miner transaction's outputs, rejecting
// zero-amount outputs on pre-RingCT transactions and non-decomposed
// amounts during the V3 window where that was still required.
//
// ref: sum_outputs, miner_tx.rs
func sumMinerTxOutputs(outputs []txtypes.Output, hf hardfork.HardFork, version txtypes.Version) (uint64, error) {
	var sum uint64
	for _, out := range outputs {
		amt := out.Amount

		if version == txtypes.VersionRingSignatures && amt == 0 {
			return 0, ruleError(ErrMinerTxInvalid, "pre-RingCT miner output has a zero amount")
		}
		if hf == hardfork.V3 && !IsDecomposedAmount(amt) {
			return 0, ruleError(ErrMinerTxInvalid, "miner output amount is not decomposed")
		}

		next := sum + amt
		if next < sum {
			return 0, ruleError(ErrTxAmountOverflow, "miner transaction outputs overflow")
		}
		sum = next
	}
	return sum, nil
}

// checkMinerTxTotalOutputAmount enforces the relationship between the
// miner-tx output total, the computed reward and the block's fees, and
// returns the amount of coins actually collected by the miner (which is
// what gets added to already-generated-coins going forward).
//
// ref: check_total_output_amt, miner_tx.rs
func checkMinerTxTotalOutputAmount(totalOutput, reward, fees uint64, hf hardfork.HardFork) (uint64, error) {
	if hf == hardfork.V1 || hf >= hardfork.V12 {
		if totalOutput != reward+fees {
			return 0, ruleError(ErrMinerTxInvalid, "miner transaction output amount incorrect")
		}
		return reward, nil
	}

	// Between V1 and V12 a miner may claim less than the full reward (but
	// never more), in which case the difference is simply not generated.
	if totalOutput < fees || totalOutput-fees > reward || totalOutput > reward+fees {
		return 0, ruleError(ErrMinerTxInvalid, "miner transaction output amount incorrect")
	}
	return totalOutput - fees, nil
}

// CheckMinerTx runs every miner-transaction rule and returns the amount of
// coins the miner actually collected (to be added to the chain's
// already-generated-coins total). It does not check whether a miner-tx
// output key already exists in the output pool; that would need the
// blockchain store, and VerifyBlock does not check it either.
//
// ref: check_miner_tx, miner_tx.rs
func CheckMinerTx(
	tx *txtypes.Transaction,
	totalFees uint64,
	chainHeight uint64,
	blockWeight, medianWeight int,
	alreadyGeneratedCoins uint64,
	hf hardfork.HardFork,
) (uint64, error) {
	if err := checkMinerTxVersion(tx, hf); err != nil {
		return 0, err
	}

	if hf >= hardfork.V12 && tx.RctType != txtypes.RctNull {
		return 0, ruleError(ErrMinerTxInvalid, "miner transaction RingCT type is not null")
	}

	if err := checkMinerTxTimeLock(tx.Lock, chainHeight); err != nil {
		return 0, err
	}
	if err := checkMinerTxInputs(tx.Inputs, chainHeight); err != nil {
		return 0, err
	}
	if err := CheckOutputTypes(tx.Outputs, hf); err != nil {
		return 0, ruleError(ErrMinerTxInvalid, "miner transaction has an invalid output type")
	}

	reward := CalculateBlockReward(blockWeight, medianWeight, alreadyGeneratedCoins, hf)
	totalOut, err := sumMinerTxOutputs(tx.Outputs, hf, tx.Version)
	if err != nil {
		return 0, err
	}

	return checkMinerTxTotalOutputAmount(totalOut, reward, totalFees, hf)
}
