// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pow selects and runs the proof-of-work hash for a block: one of
// the CryptoNight variants for older hard forks, RandomX from V12 onward.
// CryptoNight is computed by a local stand-in (cryptonight_slowhash.go)
// whose output is not bit-exact with Monero's CryptoNight. RandomX hashing
// goes through a caller-supplied VM; VM construction and caching live in
// consensus/context, not here.
package pow

import (
	"errors"

	"git.gammaspectra.live/P2Pool/consensus/v4/monero/randomx"
	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
)

// ErrTooShort is returned by Hash when buf is too short for the selected
// algorithm to process. Only CryptoNight v1 has this restriction.
var ErrTooShort = errors.New("pow: input too short for this algorithm")

// Algorithm identifies which proof-of-work function applies at a given
// hard fork.
type Algorithm uint8

const (
	AlgorithmCryptoNightV0 Algorithm = iota
	AlgorithmCryptoNightV1
	AlgorithmCryptoNightV2
	AlgorithmCryptoNightR
	AlgorithmRandomX
)

// minCryptoNightV1Len is the shortest input CryptoNight v1 will hash.
const minCryptoNightV1Len = 43

// IsSeedHeight reports whether height is one at which the RandomX seed
// hash changes, i.e. the start of a new RandomX epoch.
func IsSeedHeight(height uint64) bool {
	return height%randomx.SeedHashEpochBlocks == 0
}

// AlgorithmForHardFork returns the proof-of-work algorithm a block on hf
// must use.
//
// ref: SYSTEM OVERVIEW, C2
func AlgorithmForHardFork(hf hardfork.HardFork) Algorithm {
	switch {
	case hf <= hardfork.V6:
		return AlgorithmCryptoNightV0
	case hf <= hardfork.V8:
		return AlgorithmCryptoNightV1
	case hf == hardfork.V9:
		return AlgorithmCryptoNightV2
	case hf <= hardfork.V11:
		return AlgorithmCryptoNightR
	default:
		return AlgorithmRandomX
	}
}

// VM computes a RandomX hash for a fixed seed; it is implemented by the
// RandomX VM cache in consensus/context over the P2Pool Monero node's
// RandomX binding.
type VM interface {
	CalculateHash(input []byte) [32]byte
}

// Hash computes the proof-of-work hash of buf for the given hard fork and
// height (height is only used by CryptoNight R, which mixes the block
// height itself into its state; for RandomX the seed is already fixed by
// vm, so height is unused). vm is required, and must
// already be constructed for the correct RandomX seed, when the algorithm
// is AlgorithmRandomX; it is ignored otherwise.
func Hash(buf []byte, hf hardfork.HardFork, height uint64, vm VM) ([32]byte, error) {
	switch AlgorithmForHardFork(hf) {
	case AlgorithmCryptoNightV0:
		return cryptoNightSlowHash(buf, cnVariant0, 0), nil
	case AlgorithmCryptoNightV1:
		if len(buf) < minCryptoNightV1Len {
			return [32]byte{}, ErrTooShort
		}
		return cryptoNightSlowHash(buf, cnVariant1, 0), nil
	case AlgorithmCryptoNightV2:
		return cryptoNightSlowHash(buf, cnVariant2, 0), nil
	case AlgorithmCryptoNightR:
		return cryptoNightSlowHash(buf, cnVariantR, height), nil
	case AlgorithmRandomX:
		if vm == nil {
			return [32]byte{}, errors.New("pow: RandomX VM required for this hard fork")
		}
		return vm.CalculateHash(buf), nil
	default:
		return [32]byte{}, errors.New("pow: unknown algorithm")
	}
}
