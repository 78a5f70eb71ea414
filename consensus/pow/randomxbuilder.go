// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pow

import "errors"

// ErrRandomXUnavailable is returned by a VM builder that has no concrete
// RandomX backend wired in (see NoRandomXBuilder).
var ErrRandomXUnavailable = errors.New("pow: no RandomX backend configured")

// NoRandomXBuilder is a VM builder that always fails. It is used by
// cmd/monerod's development entrypoint when run against the in-memory
// store/peer-set test doubles (chainiotest/p2ptest), which carry no real
// RandomX-era blocks to hash in the first place; a production deployment
// wires a builder that constructs
// git.gammaspectra.live/P2Pool/consensus/v4/monero/randomx VMs from the
// seed hash instead.
type NoRandomXBuilder struct{}

func (NoRandomXBuilder) NewVM(seedHash [32]byte) (VM, error) {
	return nil, ErrRandomXUnavailable
}
