// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rules

import (
	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"git.gammaspectra.live/monerod/consensus/consensus/txtypes"
)

// lockedTxAllowedDelta is how many blocks of slack a time-locked-by-block
// output is granted once it unlocks: the lock is considered satisfied
// lockedTxAllowedDelta blocks before its nominal height, matching the
// reference daemon's handling of miners racing the lock boundary.
const lockedTxAllowedDelta = 1

// CheckTimeLock reports whether lock is unlocked given the chain's current
// height and the median timestamp of the last window of blocks (used for
// Time-kind locks instead of the block's own timestamp, since a miner
// otherwise controls that value).
//
// ref: consensus_rules/transactions.html#unlock-time
func CheckTimeLock(lock txtypes.Timelock, chainHeight, medianTimestamp uint64) bool {
	switch lock.Kind {
	case txtypes.TimelockNone:
		return true
	case txtypes.TimelockBlock:
		return chainHeight+lockedTxAllowedDelta >= lock.Height
	case txtypes.TimelockTime:
		return medianTimestamp+lockedTxAllowedDelta >= lock.Time
	default:
		return false
	}
}

// CheckAllTimeLocks checks every input's associated output unlock time,
// returning an error as soon as one is found still locked; the error does
// not say which one.
func CheckAllTimeLocks(locks []txtypes.Timelock, chainHeight, medianTimestamp uint64, _ hardfork.HardFork) error {
	for _, lock := range locks {
		if !CheckTimeLock(lock, chainHeight, medianTimestamp) {
			return ruleError(ErrTxTimeLockInvalid, "transaction spends a still-locked output")
		}
	}
	return nil
}
