// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hardfork

import "testing"

func TestFromVersion(t *testing.T) {
	hf, err := FromVersion(1)
	if err != nil || hf != V1 {
		t.Fatalf("FromVersion(1) = %v, %v; want V1, nil", hf, err)
	}
	if _, err := FromVersion(0); err == nil {
		t.Error("FromVersion(0) should be rejected")
	}
	if _, err := FromVersion(uint8(Latest) + 1); err == nil {
		t.Error("FromVersion(Latest+1) should be rejected")
	}
}

func TestFromVote(t *testing.T) {
	if hf := FromVote(0); hf != V1 {
		t.Errorf("FromVote(0) = %v, want V1", hf)
	}
	if hf := FromVote(uint8(V9)); hf != V9 {
		t.Errorf("FromVote(9) = %v, want V9", hf)
	}
	if hf := FromVote(255); hf != Latest {
		t.Errorf("FromVote(255) = %v, want Latest", hf)
	}
}

func TestBlockTime(t *testing.T) {
	if V1.BlockTime() != blockTimeV1 {
		t.Error("V1 should use the v1 block time")
	}
	if V2.BlockTime() != blockTimeV2 {
		t.Error("V2 should use the v2 block time")
	}
	if Latest.BlockTime() != blockTimeV2 {
		t.Error("Latest should use the v2 block time")
	}
}

func TestNextFork(t *testing.T) {
	next, ok := V1.NextFork()
	if !ok || next != V2 {
		t.Fatalf("V1.NextFork() = %v, %v; want V2, true", next, ok)
	}
	if _, ok := Latest.NextFork(); ok {
		t.Error("Latest.NextFork() should report false")
	}
}

func TestValid(t *testing.T) {
	if HardFork(0).Valid() {
		t.Error("zero value should not be valid")
	}
	if !V1.Valid() || !Latest.Valid() {
		t.Error("V1 and Latest should both be valid")
	}
	if HardFork(uint8(Latest) + 1).Valid() {
		t.Error("a fork past Latest should not be valid")
	}
}

func TestString(t *testing.T) {
	if V9.String() != "v9" {
		t.Errorf("V9.String() = %q, want %q", V9.String(), "v9")
	}
	if HardFork(0).String() == "v0" {
		t.Error("invalid hard fork should not format as a plain vN string")
	}
}
