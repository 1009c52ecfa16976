package chain

import (
	"errors"
	"testing"
	"time"
)

func sealChain(t *testing.T, n int) []*Block {
	t.Helper()

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	genesis, err := Seal(nil, TypeGenesis, 0, at)
	if err != nil {
		t.Fatal(err)
	}
	blocks := []*Block{genesis}

	for i := 1; i < n; i++ {
		b, err := Seal(blocks[i-1], TypeCreateAsset, map[string]any{"seq": i}, at.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatal(err)
		}
		blocks = append(blocks, b)
	}
	return blocks
}

func TestDigestDeterministic(t *testing.T) {
	a, err := Digest(map[string]string{"b": "2", "a": "1"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Digest(map[string]string{"a": "1", "b": "2"})
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("map digest should not depend on key order")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestDigestRejectsUnencodable(t *testing.T) {
	if _, err := Digest(func() {}); err == nil {
		t.Error("expected error digesting a function value")
	}
}

func TestSealGenesis(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b, err := Seal(nil, TypeGenesis, 0, at)
	if err != nil {
		t.Fatal(err)
	}

	if b.PreviousHash != GenesisPreviousHash {
		t.Errorf("PreviousHash: got %q, want %q", b.PreviousHash, GenesisPreviousHash)
	}
	if !b.IsGenesis() {
		t.Error("genesis block should report IsGenesis")
	}
	if b.Type != TypeGenesis {
		t.Errorf("Type: got %q", b.Type)
	}
	if b.Hash == "" || b.PayloadHash == "" {
		t.Error("hashes must be populated")
	}
	if b.ID.IsNil() {
		t.Error("block must get an ID")
	}
}

func TestSealLinksToPrevious(t *testing.T) {
	blocks := sealChain(t, 3)

	for i := 1; i < len(blocks); i++ {
		if blocks[i].PreviousHash != blocks[i-1].Hash {
			t.Errorf("block %d previous_hash does not match predecessor", i)
		}
		if blocks[i].IsGenesis() {
			t.Errorf("block %d should not be genesis", i)
		}
	}
}

func TestSealSamePayloadDifferentHash(t *testing.T) {
	blocks := sealChain(t, 2)
	at := blocks[1].CreatedAt.Add(time.Second)

	// Same payload sealed at a different chain position gets a new link hash.
	b, err := Seal(blocks[1], TypeCreateAsset, map[string]any{"seq": 1}, at)
	if err != nil {
		t.Fatal(err)
	}
	if b.PayloadHash != blocks[1].PayloadHash {
		t.Error("identical payloads should digest identically")
	}
	if b.Hash == blocks[1].Hash {
		t.Error("link hash must depend on chain position")
	}
}

func TestVerify(t *testing.T) {
	t.Run("EmptyChain", func(t *testing.T) {
		if err := Verify(nil); err != nil {
			t.Errorf("empty chain should verify: %v", err)
		}
	})

	t.Run("ValidChain", func(t *testing.T) {
		if err := Verify(sealChain(t, 5)); err != nil {
			t.Errorf("valid chain should verify: %v", err)
		}
	})

	t.Run("MissingGenesis", func(t *testing.T) {
		blocks := sealChain(t, 3)
		err := Verify(blocks[1:])
		var verr *VerifyError
		if !errors.As(err, &verr) {
			t.Fatalf("expected VerifyError, got %v", err)
		}
		if verr.Index != 0 {
			t.Errorf("expected failure at index 0, got %d", verr.Index)
		}
	})

	t.Run("DuplicateGenesis", func(t *testing.T) {
		blocks := sealChain(t, 3)
		at := time.Now()
		extra, err := Seal(nil, TypeGenesis, 0, at)
		if err != nil {
			t.Fatal(err)
		}
		blocks = append(blocks, extra)

		var verr *VerifyError
		if !errors.As(Verify(blocks), &verr) {
			t.Fatal("expected VerifyError for duplicate genesis")
		}
		if verr.Index != 3 {
			t.Errorf("expected failure at index 3, got %d", verr.Index)
		}
	})

	t.Run("TamperedPayload", func(t *testing.T) {
		blocks := sealChain(t, 4)
		blocks[2] = blocks[2].Clone()
		blocks[2].PayloadHash = "deadbeef"

		var verr *VerifyError
		if !errors.As(Verify(blocks), &verr) {
			t.Fatal("expected VerifyError for tampered payload")
		}
		if verr.Index != 2 {
			t.Errorf("expected failure at index 2, got %d", verr.Index)
		}
	})

	t.Run("TamperedLink", func(t *testing.T) {
		blocks := sealChain(t, 4)
		blocks[2] = blocks[2].Clone()
		blocks[2].PreviousHash = blocks[0].Hash

		var verr *VerifyError
		if !errors.As(Verify(blocks), &verr) {
			t.Fatal("expected VerifyError for broken link")
		}
		if verr.Index != 2 {
			t.Errorf("expected failure at index 2, got %d", verr.Index)
		}
	})

	t.Run("RewrittenHistoryBreaksSuccessor", func(t *testing.T) {
		blocks := sealChain(t, 4)

		// Re-seal block 1 with a different payload and fix its link so the
		// block itself is internally consistent.
		reseal, err := Seal(blocks[0], TypeCreateAsset, map[string]any{"seq": 99}, blocks[1].CreatedAt)
		if err != nil {
			t.Fatal(err)
		}
		blocks[1] = reseal

		// The successor still points at the old hash.
		var verr *VerifyError
		if !errors.As(Verify(blocks), &verr) {
			t.Fatal("expected VerifyError after history rewrite")
		}
		if verr.Index != 2 {
			t.Errorf("expected failure at index 2, got %d", verr.Index)
		}
	})
}

func TestSealTruncatesTimestampToMillisecond(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	b, err := Seal(nil, TypeGenesis, 0, at)
	if err != nil {
		t.Fatal(err)
	}

	want := at.Truncate(time.Millisecond)
	if !b.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt: got %v, want %v", b.CreatedAt, want)
	}
	if b.CreatedAt.Nanosecond()%int(time.Millisecond) != 0 {
		t.Errorf("CreatedAt carries sub-millisecond precision: %v", b.CreatedAt)
	}
}

// Successor hashes cover the predecessor's timestamp, so the chain must
// still verify after timestamps round-trip through backends that keep
// microseconds (TIMESTAMPTZ) or milliseconds (BSON datetimes).
func TestVerifySurvivesTimestampRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 987654321, time.UTC)

	genesis, err := Seal(nil, TypeGenesis, 0, at)
	if err != nil {
		t.Fatal(err)
	}
	blocks := []*Block{genesis}
	for i := 1; i < 4; i++ {
		b, err := Seal(blocks[i-1], TypeCreateAsset, map[string]any{"seq": i},
			at.Add(time.Duration(i)*time.Second+time.Duration(i)*137*time.Nanosecond))
		if err != nil {
			t.Fatal(err)
		}
		blocks = append(blocks, b)
	}

	for _, precision := range []struct {
		name string
		unit time.Duration
	}{
		{"Microsecond", time.Microsecond},
		{"Millisecond", time.Millisecond},
	} {
		t.Run(precision.name, func(t *testing.T) {
			stored := make([]*Block, len(blocks))
			for i, b := range blocks {
				c := b.Clone()
				c.CreatedAt = c.CreatedAt.Truncate(precision.unit)
				stored[i] = c
			}
			if err := Verify(stored); err != nil {
				t.Errorf("chain should verify after storage round trip: %v", err)
			}
		})
	}
}

func TestBlockDetailFixedKeys(t *testing.T) {
	blocks := sealChain(t, 2)
	d := blocks[1].Detail()

	for _, key := range []string{"previous_hash", "hash", "block_type", "created_at"} {
		if _, ok := d[key]; !ok {
			t.Errorf("detail missing key %q", key)
		}
	}
	if len(d) != 4 {
		t.Errorf("detail should carry exactly 4 keys, got %d", len(d))
	}
	if d["block_type"] != string(TypeCreateAsset) {
		t.Errorf("block_type: got %q", d["block_type"])
	}
}
