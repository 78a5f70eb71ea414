// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rxcache persists the last two RandomX seed heights and their
// seed hashes to a small local LevelDB database, so a restarted node
// knows which VMs to reconstruct first instead of having to replay the
// whole chain to rediscover them. It is a crash-recovery hint local to
// the context service, distinct from the (external, opaque) blockchain
// store.
package rxcache

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var seedsKeyPrefix = []byte("seed/")

// Cache wraps a LevelDB handle recording known RandomX seed heights and
// their seed hashes.
type Cache struct {
	db *leveldb.DB
}

// Open opens (creating if necessary) the LevelDB database at dir.
func Open(dir string) (*Cache, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("rxcache: opening %s: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// PutSeed records the seed hash active at seedHeight.
func (c *Cache) PutSeed(seedHeight uint64, seedHash [32]byte) error {
	return c.db.Put(seedKey(seedHeight), seedHash[:], nil)
}

// Seed returns the seed hash recorded for seedHeight, and false if none is
// known.
func (c *Cache) Seed(seedHeight uint64) ([32]byte, bool, error) {
	val, err := c.db.Get(seedKey(seedHeight), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return [32]byte{}, false, nil
	}
	if err != nil {
		return [32]byte{}, false, err
	}
	var out [32]byte
	copy(out[:], val)
	return out, true, nil
}

// KnownSeedHeights returns every seed height this cache has a recorded
// hash for, ascending.
func (c *Cache) KnownSeedHeights() ([]uint64, error) {
	iter := c.db.NewIterator(util.BytesPrefix(seedsKeyPrefix), nil)
	defer iter.Release()

	var heights []uint64
	for iter.Next() {
		key := iter.Key()
		heights = append(heights, binary.BigEndian.Uint64(key[len(seedsKeyPrefix):]))
	}
	return heights, iter.Error()
}

// Prune removes every recorded seed height below keepAbove, keeping the
// database from growing unbounded as the chain advances.
func (c *Cache) Prune(keepAbove uint64) error {
	heights, err := c.KnownSeedHeights()
	if err != nil {
		return err
	}
	batch := new(leveldb.Batch)
	for _, h := range heights {
		if h < keepAbove {
			batch.Delete(seedKey(h))
		}
	}
	return c.db.Write(batch, nil)
}

func seedKey(seedHeight uint64) []byte {
	key := make([]byte, len(seedsKeyPrefix)+8)
	copy(key, seedsKeyPrefix)
	binary.BigEndian.PutUint64(key[len(seedsKeyPrefix):], seedHeight)
	return key
}
