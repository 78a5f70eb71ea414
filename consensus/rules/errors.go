// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rules

import "fmt"

// ErrorCode identifies a kind of consensus rule violation.
type ErrorCode int

const (
	// ErrTxVersion indicates a transaction carries a version number that is
	// not allowed on the active hard fork.
	ErrTxVersion ErrorCode = iota
	// ErrTxInputInvalid indicates a transaction input is malformed or of an
	// input type not allowed in this context.
	ErrTxInputInvalid
	// ErrTxRingInvalid indicates a ring (decoy set) is malformed or does not
	// satisfy the active hard fork's decoy rules.
	ErrTxRingInvalid
	// ErrTxKeyImageSpent indicates a key image appears more than once among
	// the inputs being checked together.
	ErrTxKeyImageSpent
	// ErrTxKeyImageTorsion indicates a key image is not a member of the
	// prime-order subgroup.
	ErrTxKeyImageTorsion
	// ErrTxOutputInvalid indicates a transaction output is malformed or not
	// of an allowed type.
	ErrTxOutputInvalid
	// ErrTxAmountOverflow indicates summing input or output amounts
	// overflowed a uint64.
	ErrTxAmountOverflow
	// ErrTxTimeLockInvalid indicates a time lock does not match what the
	// context requires.
	ErrTxTimeLockInvalid
	// ErrRingCTTypeNotAllowed indicates the RingCT signature type used is
	// not permitted on the active hard fork.
	ErrRingCTTypeNotAllowed
	// ErrRingCTBalance indicates the pseudo-out commitments do not balance
	// against the output commitments and fee.
	ErrRingCTBalance
	// ErrRingCTRangeProofInvalid indicates an output's range proof failed
	// verification.
	ErrRingCTRangeProofInvalid
	// ErrRingSignatureInvalid indicates an MLSAG or CLSAG ring signature
	// failed verification.
	ErrRingSignatureInvalid
	// ErrMinerTxInvalid indicates the miner (coinbase) transaction violates
	// one of the miner-tx rules.
	ErrMinerTxInvalid
	// ErrBlockHeaderInvalid indicates a block header field is inconsistent
	// with the rules for the active hard fork.
	ErrBlockHeaderInvalid
	// ErrProofOfWorkInvalid indicates a block's proof of work does not meet
	// its required difficulty.
	ErrProofOfWorkInvalid
)

var errorCodeStrings = map[ErrorCode]string{
	ErrTxVersion:               "ErrTxVersion",
	ErrTxInputInvalid:          "ErrTxInputInvalid",
	ErrTxRingInvalid:           "ErrTxRingInvalid",
	ErrTxKeyImageSpent:         "ErrTxKeyImageSpent",
	ErrTxKeyImageTorsion:       "ErrTxKeyImageTorsion",
	ErrTxOutputInvalid:         "ErrTxOutputInvalid",
	ErrTxAmountOverflow:        "ErrTxAmountOverflow",
	ErrTxTimeLockInvalid:       "ErrTxTimeLockInvalid",
	ErrRingCTTypeNotAllowed:    "ErrRingCTTypeNotAllowed",
	ErrRingCTBalance:           "ErrRingCTBalance",
	ErrRingCTRangeProofInvalid: "ErrRingCTRangeProofInvalid",
	ErrRingSignatureInvalid:    "ErrRingSignatureInvalid",
	ErrMinerTxInvalid:          "ErrMinerTxInvalid",
	ErrBlockHeaderInvalid:      "ErrBlockHeaderInvalid",
	ErrProofOfWorkInvalid:      "ErrProofOfWorkInvalid",
}

// String returns the ErrorCode's symbolic name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("ErrorCode(%d)", int(e))
}

// RuleError identifies a rule violation. It carries both an ErrorCode for
// programmatic handling via errors.Is/errors.As and a human-readable
// description for logs.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface.
func (e RuleError) Error() string {
	return e.Description
}

// Is reports whether target is a RuleError with the same ErrorCode, so
// callers can write errors.Is(err, rules.RuleError{ErrorCode: rules.ErrTxVersion}).
func (e RuleError) Is(target error) bool {
	t, ok := target.(RuleError)
	if !ok {
		return false
	}
	return e.ErrorCode == t.ErrorCode
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}
