package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/harvest/id"
)

// Digest returns the SHA-256 hex digest of the canonical JSON encoding of
// the payload. encoding/json sorts map keys, so map payloads digest
// deterministically; struct payloads digest in field order.
func Digest(payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("chain: encode payload: %w", err)
	}

	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Seal builds the next block of the chain. The payload is digested into
// payload_hash; the link hash is computed over the previous block's detail
// with the payload digest mixed in under "new_hash". A nil prev seals the
// genesis block: sentinel previous_hash "0" and an empty predecessor detail.
//
// The block timestamp is truncated to millisecond precision: successor
// hashes cover the formatted timestamp, so it must survive a round trip
// through every storage backend (TIMESTAMPTZ is microseconds, BSON
// datetimes are milliseconds) without changing.
func Seal(prev *Block, blockType BlockType, payload any, at time.Time) (*Block, error) {
	payloadHash, err := Digest(payload)
	if err != nil {
		return nil, err
	}

	prevHash := GenesisPreviousHash
	prevDetail := map[string]string{}
	if prev != nil {
		prevHash = prev.Hash
		prevDetail = prev.Detail()
	}

	link := make(map[string]string, len(prevDetail)+1)
	for k, v := range prevDetail {
		link[k] = v
	}
	link["new_hash"] = payloadHash

	hash, err := Digest(link)
	if err != nil {
		return nil, err
	}

	return &Block{
		ID:           id.NewBlockID(),
		PreviousHash: prevHash,
		Hash:         hash,
		PayloadHash:  payloadHash,
		Type:         blockType,
		CreatedAt:    at.UTC().Truncate(time.Millisecond),
	}, nil
}

// VerifyError describes the first integrity failure found during replay.
type VerifyError struct {
	Index  int    // Position of the offending block in append order
	Reason string // Human-readable mismatch description
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("chain: block %d: %s", e.Index, e.Reason)
}

// Verify replays the chain in append order and checks every link: the first
// block must be the only one carrying the genesis sentinel, each block's
// previous_hash must equal its predecessor's hash, and each block's hash
// must recompute from the predecessor's detail plus the stored payload
// digest. An empty chain verifies trivially.
func Verify(blocks []*Block) error {
	var prev *Block

	for i, b := range blocks {
		if i == 0 {
			if !b.IsGenesis() {
				return &VerifyError{Index: i, Reason: "first block is not genesis"}
			}
		} else {
			if b.IsGenesis() {
				return &VerifyError{Index: i, Reason: "duplicate genesis sentinel"}
			}
			if b.PreviousHash != prev.Hash {
				return &VerifyError{Index: i, Reason: fmt.Sprintf(
					"previous_hash %q does not match predecessor hash %q",
					b.PreviousHash, prev.Hash,
				)}
			}
		}

		prevDetail := map[string]string{}
		if prev != nil {
			prevDetail = prev.Detail()
		}

		link := make(map[string]string, len(prevDetail)+1)
		for k, v := range prevDetail {
			link[k] = v
		}
		link["new_hash"] = b.PayloadHash

		want, err := Digest(link)
		if err != nil {
			return err
		}
		if b.Hash != want {
			return &VerifyError{Index: i, Reason: fmt.Sprintf(
				"hash %q does not recompute (want %q)", b.Hash, want,
			)}
		}

		prev = b
	}

	return nil
}
