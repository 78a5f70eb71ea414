// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2015 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rules

import (
	"errors"
	"testing"

	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"git.gammaspectra.live/monerod/consensus/consensus/txtypes"
)

func validPreRingCTMinerTx(chainHeight uint64, outAmount uint64) *txtypes.Transaction {
	return &txtypes.Transaction{
		Version: txtypes.VersionRingSignatures,
		Inputs: []txtypes.Input{
			{Kind: txtypes.InputGen, Gen: chainHeight},
		},
		Outputs: []txtypes.Output{
			{Amount: outAmount, HasAmount: true},
		},
		Lock: txtypes.Timelock{Kind: txtypes.TimelockBlock, Height: chainHeight + minerTxTimeLockedBlocks},
		RctType: txtypes.RctNull,
	}
}

func TestCheckMinerTxAcceptsExactReward(t *testing.T) {
	const chainHeight = 1000
	const blockWeight, medianWeight = 300, 600
	const already = 0
	reward := CalculateBlockReward(blockWeight, medianWeight, already, hardfork.V1)

	tx := validPreRingCTMinerTx(chainHeight, reward)
	collected, err := CheckMinerTx(tx, 0, chainHeight, blockWeight, medianWeight, already, hardfork.V1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if collected != reward {
		t.Errorf("collected = %d, want %d", collected, reward)
	}
}

func TestCheckMinerTxAllowsUnderclaimBeforeV12(t *testing.T) {
	const chainHeight = 1000
	const blockWeight, medianWeight = 300, 600
	const already = 0
	reward := CalculateBlockReward(blockWeight, medianWeight, already, hardfork.V1)

	tx := validPreRingCTMinerTx(chainHeight, reward-1)
	collected, err := CheckMinerTx(tx, 0, chainHeight, blockWeight, medianWeight, already, hardfork.V1)
	if err != nil {
		t.Fatalf("unexpected error claiming less than the full reward: %v", err)
	}
	if collected != reward-1 {
		t.Errorf("collected = %d, want %d", collected, reward-1)
	}
}

func TestCheckMinerTxRejectsOverclaim(t *testing.T) {
	const chainHeight = 1000
	const blockWeight, medianWeight = 300, 600
	const already = 0
	reward := CalculateBlockReward(blockWeight, medianWeight, already, hardfork.V1)

	tx := validPreRingCTMinerTx(chainHeight, reward+1)
	if _, err := CheckMinerTx(tx, 0, chainHeight, blockWeight, medianWeight, already, hardfork.V1); err == nil {
		t.Fatal("expected an error when the miner tx claims more than the reward")
	}
}

func TestCheckMinerTxRejectsWrongInputHeight(t *testing.T) {
	const chainHeight = 1000
	tx := validPreRingCTMinerTx(chainHeight, 1)
	tx.Inputs[0].Gen = chainHeight + 1

	_, err := CheckMinerTx(tx, 0, chainHeight, 300, 600, 0, hardfork.V1)
	var re RuleError
	if !errors.As(err, &re) || re.ErrorCode != ErrMinerTxInvalid {
		t.Fatalf("expected ErrMinerTxInvalid, got %v", err)
	}
}

func TestCheckMinerTxRejectsWrongTimeLock(t *testing.T) {
	const chainHeight = 1000
	tx := validPreRingCTMinerTx(chainHeight, 1)
	tx.Lock.Height = chainHeight

	if _, err := CheckMinerTx(tx, 0, chainHeight, 300, 600, 0, hardfork.V1); err == nil {
		t.Fatal("expected an error for an incorrect time lock")
	}
}

func TestCheckMinerTxRejectsWrongVersionPastV12(t *testing.T) {
	const chainHeight = 1000
	tx := validPreRingCTMinerTx(chainHeight, 1)

	if _, err := CheckMinerTx(tx, 0, chainHeight, 300, 600, 0, hardfork.V12); err == nil {
		t.Fatal("expected an error: V12+ requires a RingCT miner transaction")
	}
}

func TestCheckMinerTxExactRewardRequiredAtV12(t *testing.T) {
	const chainHeight = 1000
	const blockWeight, medianWeight = 300, 600
	const already = 0
	reward := CalculateBlockReward(blockWeight, medianWeight, already, hardfork.V12)

	tx := &txtypes.Transaction{
		Version: txtypes.VersionRingCT,
		Inputs: []txtypes.Input{
			{Kind: txtypes.InputGen, Gen: chainHeight},
		},
		Outputs: []txtypes.Output{
			{Amount: 0, HasAmount: false},
		},
		Lock:    txtypes.Timelock{Kind: txtypes.TimelockBlock, Height: chainHeight + minerTxTimeLockedBlocks},
		RctType: txtypes.RctNull,
	}
	tx.Outputs[0].Amount = reward

	// V12+ requires outputs to hide their amount; a miner-tx output cannot
	// carry a cleartext amount even though the overall sum must match the
	// reward exactly, so sumMinerTxOutputs treats the (hidden) Amount field
	// as the accounting value for the total-output check.
	_, err := CheckMinerTx(tx, 0, chainHeight, blockWeight, medianWeight, already, hardfork.V12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tx.Outputs[0].Amount = reward - 1
	if _, err := CheckMinerTx(tx, 0, chainHeight, blockWeight, medianWeight, already, hardfork.V12); err == nil {
		t.Fatal("expected an error: V12+ requires the output total to match the reward exactly")
	}
}

func TestCalculateBlockRewardAppliesPenaltyOverMedian(t *testing.T) {
	const medianWeight = 600
	const already = 0
	base := CalculateBlockReward(medianWeight, medianWeight, already, hardfork.V1)
	penalized := CalculateBlockReward(medianWeight*2-1, medianWeight, already, hardfork.V1)
	if penalized >= base {
		t.Errorf("reward for an over-median block (%d) should be less than the base reward (%d)", penalized, base)
	}
}
