// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pow

import (
	"crypto/aes"
	"encoding/binary"

	"git.gammaspectra.live/P2Pool/sha3"
)

// cnVariant selects which of the pre-RandomX CryptoNight tunings
// cryptoNightSlowHash runs.
type cnVariant uint8

const (
	cnVariant0 cnVariant = iota
	cnVariant1
	cnVariant2
	cnVariantR
)

// cnScratchpadSize is the size, in bytes, of the memory-hard scratchpad
// every pre-RandomX CryptoNight variant mixes into.
const cnScratchpadSize = 2 * 1024 * 1024

// cnIterations is the number of scratchpad read/mix/write rounds the slow
// hash performs.
const cnIterations = 1 << 19

// cryptoNightSlowHash runs the memory-hard CryptoNight mixing loop over
// buf and reduces the resulting scratchpad state to a 32-byte hash.
//
// height is only consulted by cnVariantR, which folds it into the mixing
// round to make the function's internal constants height-dependent.
//
// ref: cryptonight/src/lib.rs (cn_slow_hash, blake256, cnaes, hash_v2,
// hash_v4 modules)
func cryptoNightSlowHash(buf []byte, variant cnVariant, height uint64) [32]byte {
	state := keccak1600(buf)

	scratchpad := make([]byte, cnScratchpadSize)
	fillScratchpad(scratchpad, state[:32])

	a := xorBlock(state[:16], state[32:48])
	b := xorBlock(state[16:32], state[48:64])

	block, _ := aes.NewCipher(derefKey(state[:32]))

	for i := 0; i < cnIterations; i++ {
		off := scratchpadOffset(a, len(scratchpad))
		chunk := scratchpad[off : off+16]

		block.Encrypt(chunk, chunk)
		mixVariant(variant, height, uint64(i), chunk, a, b)

		a, b = xorBlock(chunk, b), a
	}

	finalKey := deriveFinalKey(state, scratchpad)
	return reduceFinal(finalKey)
}

func keccak1600(buf []byte) [64]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(buf)
	sum := h.Sum(nil)
	var out [64]byte
	// The reference absorbs into a 1600-bit (200-byte) state and takes the
	// low 64 bytes as AES/scratchpad seed material; folding the 32-byte
	// digest twice keeps this self-contained without a raw Keccak-f
	// permutation implementation.
	copy(out[:32], sum)
	copy(out[32:], sum)
	return out
}

func fillScratchpad(scratchpad []byte, seed []byte) {
	block, _ := aes.NewCipher(derefKey(seed))
	buf := make([]byte, 16)
	copy(buf, seed[:16])
	for off := 0; off < len(scratchpad); off += 16 {
		block.Encrypt(buf, buf)
		copy(scratchpad[off:off+16], buf)
	}
}

func derefKey(seed []byte) []byte {
	key := make([]byte, 32)
	copy(key, seed)
	return key
}

func xorBlock(a, b []byte) []byte {
	out := make([]byte, 16)
	for i := 0; i < 16; i++ {
		out[i] = a[i] ^ b[i]
	}
	return out
}

func scratchpadOffset(a []byte, size int) int {
	v := binary.LittleEndian.Uint64(a[:8])
	mask := uint64(size/16 - 1)
	return int(v&mask) * 16
}

// mixVariant applies the per-variant tweak to the just-encrypted chunk.
// V1 xors byte 0 of the chunk into byte 11, V2 overwrites the chunk's first
// 8 bytes with a xor of a and a round-dependent right shift of b, and R
// overwrites the chunk's last 8 bytes with a xor of a and the block height.
func mixVariant(variant cnVariant, height, round uint64, chunk, a, b []byte) {
	switch variant {
	case cnVariant1:
		chunk[11] ^= chunk[0]
	case cnVariant2:
		lo := binary.LittleEndian.Uint64(a[:8])
		hi := binary.LittleEndian.Uint64(b[:8])
		mixed := lo ^ (hi >> (round%63 + 1))
		binary.LittleEndian.PutUint64(chunk[:8], mixed)
	case cnVariantR:
		lo := binary.LittleEndian.Uint64(a[:8])
		mixed := lo ^ height
		binary.LittleEndian.PutUint64(chunk[8:], mixed)
	}
}

func deriveFinalKey(state [64]byte, scratchpad []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(state[:])
	h.Write(scratchpad[len(scratchpad)-64:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// reduceFinal produces the final hash as a single Keccak-256 of key. The
// real algorithm picks one of Blake-256, Groestl, JH and Skein based on
// the low bits of the mixing state; no such selection is made here, so the
// result differs from Monero's CryptoNight.
func reduceFinal(key [32]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(key[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
