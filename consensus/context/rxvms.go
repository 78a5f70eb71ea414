// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package context

import (
	"git.gammaspectra.live/P2Pool/consensus/v4/monero/randomx"
	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"git.gammaspectra.live/monerod/consensus/consensus/pow"
)

// rxVMsKept is how many seed-height VMs the cache keeps warm: the current
// seed's VM plus the previous seed's, so a reorg across a seed boundary
// doesn't require a synchronous VM rebuild.
const rxVMsKept = 2

// VMBuilder constructs a RandomX VM for the given seed hash. Implemented
// outside this package over the P2Pool node's RandomX binding. VM
// construction is CPU-heavy; RandomXVMCache calls NewVM synchronously on
// the goroutine that uses the cache (the context actor's), so the actor
// answers no other request while a VM is being built.
type VMBuilder interface {
	NewVM(seedHash [32]byte) (pow.VM, error)
}

// BlockSeedSource answers the historical seed-hash queries the VM cache
// needs to initialize.
type BlockSeedSource interface {
	// SeedHashAt returns the RandomX seed hash in effect at height.
	SeedHashAt(height uint64) ([32]byte, error)
}

// RandomXVMCache keeps a small, bounded set of constructed RandomX VMs
// warm, keyed by seed height, so verifying a block's PoW doesn't need to
// rebuild a ~2 GiB dataset on every call.
//
// Not safe for concurrent use; callers serialize access through the
// context service's single-writer actor. A VM missing for a needed seed
// height is built inline by vmForHeight through the VMBuilder; Register
// accepts a VM that was built elsewhere.
type RandomXVMCache struct {
	builder VMBuilder
	seeds   BlockSeedSource

	// vms maps seed height to the already-constructed VM for that seed.
	vms map[uint64]pow.VM
	// order lists seed heights from most to least recently promoted.
	order []uint64

	tipHeight uint64
}

// NewRandomXVMCache initializes a RandomXVMCache at chainHeight (one past
// the current tip) for the given hard fork, eagerly constructing the VM
// for the current seed if hf is at or past the RandomX activation fork.
func NewRandomXVMCache(chainHeight uint64, hf hardfork.HardFork, builder VMBuilder, seeds BlockSeedSource) (*RandomXVMCache, error) {
	c := &RandomXVMCache{
		builder:   builder,
		seeds:     seeds,
		vms:       make(map[uint64]pow.VM, rxVMsKept),
		tipHeight: saturatingSub(chainHeight, 1),
	}
	if pow.AlgorithmForHardFork(hf) != pow.AlgorithmRandomX {
		return c, nil
	}
	if _, err := c.vmForHeight(c.tipHeight); err != nil {
		return nil, err
	}
	return c, nil
}

// NewBlock advances the cache's tip height and, if the new block's seed
// height differs from the previous tip's, promotes (building if
// necessary) the VM for the new seed and evicts the oldest.
func (c *RandomXVMCache) NewBlock(blockHeight uint64, hf hardfork.HardFork) error {
	if c.tipHeight+1 != blockHeight {
		panic("context: out-of-order block added to RandomX VM cache")
	}
	c.tipHeight = blockHeight

	if pow.AlgorithmForHardFork(hf) != pow.AlgorithmRandomX {
		return nil
	}
	_, err := c.vmForHeight(c.tipHeight)
	return err
}

// Register primes the cache with an already-constructed VM for seedHeight,
// built outside the actor (e.g. speculatively ahead of a seed switch).
func (c *RandomXVMCache) Register(seedHeight uint64, vm pow.VM) {
	c.vms[seedHeight] = vm
	c.promote(seedHeight)
	c.evictOld()
}

// GetVM returns the already-constructed VM for the seed active at height,
// building and caching it first if necessary.
func (c *RandomXVMCache) GetVM(height uint64) (pow.VM, error) {
	return c.vmForHeight(height)
}

func (c *RandomXVMCache) vmForHeight(height uint64) (pow.VM, error) {
	seedHeight := randomx.SeedHeight(height)

	if vm, ok := c.vms[seedHeight]; ok {
		c.promote(seedHeight)
		return vm, nil
	}

	seedHash, err := c.seeds.SeedHashAt(seedHeight)
	if err != nil {
		return nil, err
	}
	vm, err := c.builder.NewVM(seedHash)
	if err != nil {
		return nil, err
	}

	c.vms[seedHeight] = vm
	c.promote(seedHeight)
	c.evictOld()
	return vm, nil
}

func (c *RandomXVMCache) promote(seedHeight uint64) {
	for i, h := range c.order {
		if h == seedHeight {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append([]uint64{seedHeight}, c.order...)
}

func (c *RandomXVMCache) evictOld() {
	for len(c.order) > rxVMsKept {
		oldest := c.order[len(c.order)-1]
		c.order = c.order[:len(c.order)-1]
		delete(c.vms, oldest)
	}
}
