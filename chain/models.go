// Package chain implements the hash-chained audit ledger.
//
// Every state-changing operation appends a block. A block stores the digest
// of the payload it notarizes (payload_hash) and a link hash computed over
// the previous block's detail, so the whole history can be re-verified by
// replay without re-serializing the original payloads.
package chain

import (
	"time"

	"github.com/xraph/harvest/id"
)

// BlockType labels what kind of event a block notarizes. The labels are
// part of the audit record and must not change.
type BlockType string

// Block type constants.
const (
	TypeGenesis           BlockType = "Genesis block"
	TypeCreateUser        BlockType = "Create user"
	TypeCreateAsset       BlockType = "Create asset"
	TypeUpdateAsset       BlockType = "Update asset"
	TypeCreateTransaction BlockType = "Create transaction"
)

// GenesisPreviousHash is the sentinel previous-hash of the genesis block.
const GenesisPreviousHash = "0"

// Block is one link of the audit chain.
type Block struct {
	ID           id.BlockID `json:"id"`
	PreviousHash string     `json:"previous_hash"`
	Hash         string     `json:"hash"`
	PayloadHash  string     `json:"payload_hash"`
	Type         BlockType  `json:"block_type"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsGenesis reports whether the block carries the genesis sentinel.
func (b *Block) IsGenesis() bool {
	return b.PreviousHash == GenesisPreviousHash
}

// Detail is the canonical field map of a block. The successor block's hash
// is computed over this map, so its keys and formatting are fixed.
func (b *Block) Detail() map[string]string {
	return map[string]string{
		"previous_hash": b.PreviousHash,
		"hash":          b.Hash,
		"block_type":    string(b.Type),
		"created_at":    b.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Clone returns a copy of the block.
func (b *Block) Clone() *Block {
	clone := *b
	return &clone
}
