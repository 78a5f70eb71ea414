// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rules

import "math/big"

// CheckProofOfWork reports whether a block's PoW hash, interpreted as a
// little-endian 256-bit integer, satisfies the required difficulty, i.e.
// hash * difficulty does not overflow 256 bits.
//
// powHash is taken little-endian, Monero's native byte order for PoW hash
// comparisons.
func CheckProofOfWork(powHash [32]byte, difficulty *big.Int) bool {
	if difficulty.Sign() <= 0 {
		return false
	}

	hash := uint256FromLE(powHash)

	product := new(big.Int).Mul(hash, difficulty)
	return product.BitLen() <= 256
}

func uint256FromLE(h [32]byte) *big.Int {
	be := make([]byte, 32)
	for i := range h {
		be[31-i] = h[i]
	}
	return new(big.Int).SetBytes(be)
}
