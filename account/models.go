// Package account defines supply-chain participant accounts and their tiers.
package account

import (
	"github.com/xraph/harvest/id"
	"github.com/xraph/harvest/types"
)

// Tier is a participant's position in the supply chain.
type Tier string

// Tier constants, ordered from source to shelf.
const (
	TierWarehouse   Tier = "warehouse"
	TierDistributor Tier = "distributor"
	TierWholesale   Tier = "wholesale"
	TierRetailer    Tier = "retailer"
)

// tierRank orders tiers along the supply chain. Goods may only move one
// step at a time: warehouse → distributor → wholesale → retailer.
var tierRank = map[Tier]int{
	TierWarehouse:   0,
	TierDistributor: 1,
	TierWholesale:   2,
	TierRetailer:    3,
}

// Tiers returns all valid tiers in supply-chain order.
func Tiers() []Tier {
	return []Tier{TierWarehouse, TierDistributor, TierWholesale, TierRetailer}
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

// CanSellTo reports whether an account of tier t may sell to an account of
// the buyer tier. A sale is legal only between adjacent tiers, seller
// upstream of buyer.
func (t Tier) CanSellTo(buyer Tier) bool {
	st, ok := tierRank[t]
	if !ok {
		return false
	}
	bt, ok := tierRank[buyer]
	if !ok {
		return false
	}
	return bt == st+1
}

// Account is a supply-chain participant. Identity (an email address) is the
// unique business key; balances are integer Money mutated only through
// engine credit/debit and exchange settlement.
type Account struct {
	types.Entity

	ID             id.AccountID      `json:"id"`
	Identity       string            `json:"identity"`
	Tier           Tier              `json:"tier"`
	Balance        types.Money       `json:"balance"`
	CredentialHash string            `json:"-"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Detail is the snapshot of an account embedded in chain block payloads and
// transaction records. It carries only the fields that are part of the
// auditable state.
type Detail struct {
	Identity string      `json:"identity"`
	Tier     Tier        `json:"tier"`
	Balance  types.Money `json:"balance"`
}

// Detail returns the auditable snapshot of the account.
func (a *Account) Detail() Detail {
	return Detail{
		Identity: a.Identity,
		Tier:     a.Tier,
		Balance:  a.Balance,
	}
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	clone := *a
	if a.Metadata != nil {
		clone.Metadata = make(map[string]string, len(a.Metadata))
		for k, v := range a.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}
