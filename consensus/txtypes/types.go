// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txtypes holds the decoded transaction and block shapes the
// consensus packages check and pass between each other. It intentionally
// mirrors the wire format only as far as the rule checks need: full
// epee/levin decoding lives outside this module, in the external P2P and
// storage collaborators.
package txtypes

// Hash is a 32-byte Keccak/CN hash identifying a block or transaction.
type Hash [32]byte

// Version identifies the transaction prefix format.
type Version uint64

const (
	// VersionRingSignatures is the original pre-RingCT transaction format.
	VersionRingSignatures Version = 1
	// VersionRingCT is the RingCT transaction format.
	VersionRingCT Version = 2
)

// InputKind distinguishes the two input shapes a transaction prefix can
// contain. Real transactions only ever mix these within the single miner
// transaction (Gen) versus everything else (ToKey).
type InputKind uint8

const (
	InputGen InputKind = iota
	InputToKey
)

// Input is one transaction input.
type Input struct {
	Kind InputKind

	// Gen is populated when Kind == InputGen: the height the reward is for.
	Gen uint64

	// ToKey fields, populated when Kind == InputToKey.
	Amount     uint64 // 0 for RingCT transactions (amount is hidden).
	HasAmount  bool   // true if Amount is meaningful (pre-RingCT or the rare v1-style field).
	KeyOffsets []uint64
	KeyImage   [32]byte
}

// OutputKind distinguishes the wire shape of an output's target (the
// destination one-time public key).
type OutputKind uint8

const (
	// OutputToKey is the original txout_to_key target: a bare public key.
	OutputToKey OutputKind = iota
	// OutputToTaggedKey is txout_to_tagged_key: a public key plus a one-byte
	// view tag, letting a wallet reject most non-owned outputs without a
	// full scalar multiplication.
	OutputToTaggedKey
)

// Output is one transaction output.
type Output struct {
	Kind      OutputKind
	Amount    uint64
	HasAmount bool // false once RingCT hides amounts behind commitments.
	Key       [32]byte
	ViewTag   byte // valid when Kind == OutputToTaggedKey.
}

// TimelockKind distinguishes the shapes a time lock can take.
type TimelockKind uint8

const (
	TimelockNone TimelockKind = iota
	TimelockBlock
	TimelockTime
)

// Timelock is a decoded additional_timelock field.
type Timelock struct {
	Kind   TimelockKind
	Height uint64 // valid when Kind == TimelockBlock
	Time   uint64 // valid when Kind == TimelockTime, unix seconds
}

// RctType identifies the RingCT signature/range-proof scheme a transaction
// uses. The ordering matches the wire encoding's numeric tags.
type RctType uint8

const (
	RctNull RctType = iota
	RctMlsagAggregate
	RctMlsagIndividual
	RctBulletproofs
	RctBulletproofsCompactAmount
	RctClsag
	RctBulletproofsPlus
)

// Transaction is a decoded transaction, prefix plus RingCT signature data.
type Transaction struct {
	Version Version
	Inputs  []Input
	Outputs []Output
	Lock    Timelock

	// RctType is RctNull for pre-RingCT (Version == VersionRingSignatures)
	// transactions.
	RctType RctType
	// Fee is the declared transaction fee. For RingCT transactions this is
	// the only place the fee is visible in cleartext.
	Fee uint64

	// PseudoOuts and Commitments hold the RingCT Pedersen commitments: one
	// pseudo-out per input, one commitment per output. Empty for
	// RctMlsagAggregate, which commits to inputs differently, and for
	// pre-RingCT transactions.
	PseudoOuts  [][32]byte
	Commitments [][32]byte
}

// Hashed pairs a value with its identifying hash. Computing the hash is the
// caller's responsibility (it depends on the full serialized form,
// including pruned signature data, which this struct does not retain);
// hash is carried alongside wherever a Transaction travels instead of
// being recomputed repeatedly.
type Hashed[T any] struct {
	Hash Hash
	Data T
}
