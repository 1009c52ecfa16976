// Package holding defines goods holdings (asset lots) and their merge rules.
package holding

import (
	"github.com/xraph/harvest/account"
	"github.com/xraph/harvest/id"
	"github.com/xraph/harvest/types"
)

// Holding is a lot of named goods owned by an account. Rows merge on the
// (name, owner, previous_owner) key: acquiring more of the same goods from
// the same source adds to the quantity and overwrites the descriptive
// fields. Rows whose quantity has been sold down to zero are kept as
// provenance tombstones and remain merge-eligible.
type Holding struct {
	types.Entity

	ID            id.HoldingID `json:"id"`
	Name          string       `json:"name"`
	Owner         string       `json:"owner"`          // Account identity
	PreviousOwner string       `json:"previous_owner"` // Account identity, empty = none (origin stock)
	Quantity      int64        `json:"quantity"`
	UnitPrice     types.Money  `json:"unit_price"`
	StoragePeriod int          `json:"storage_period"` // Days
	Season        string       `json:"season"`
}

// Key is the merge key for holdings.
type Key struct {
	Name          string
	Owner         string
	PreviousOwner string
}

// Key returns the merge key of the holding.
func (h *Holding) Key() Key {
	return Key{Name: h.Name, Owner: h.Owner, PreviousOwner: h.PreviousOwner}
}

// Clone returns a copy of the holding.
func (h *Holding) Clone() *Holding {
	clone := *h
	return &clone
}

// Detail is the snapshot of a holding embedded in chain block payloads and
// transaction records. Owner and previous-owner account snapshots are
// resolved by the engine at append time.
type Detail struct {
	Name          string          `json:"name"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     types.Money     `json:"unit_price"`
	StoragePeriod int             `json:"storage_period"`
	Season        string          `json:"season"`
	Owner         account.Detail  `json:"owner"`
	PreviousOwner *account.Detail `json:"previous_owner,omitempty"`
}
