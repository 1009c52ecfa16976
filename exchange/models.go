// Package exchange defines completed exchange transaction records.
package exchange

import (
	"github.com/xraph/harvest/account"
	"github.com/xraph/harvest/holding"
	"github.com/xraph/harvest/id"
	"github.com/xraph/harvest/types"
)

// Transaction is the immutable record of a completed exchange: goods moved
// from seller to buyer, currency moved from buyer to seller. The embedded
// details are snapshots taken after settlement so the record shows the
// post-trade state of both parties.
type Transaction struct {
	types.Entity

	ID             id.TransactionID `json:"id"`
	SellerIdentity string           `json:"seller_identity"`
	BuyerIdentity  string           `json:"buyer_identity"`
	Seller         account.Detail   `json:"seller"`
	Buyer          account.Detail   `json:"buyer"`
	Asset          holding.Detail   `json:"asset"`
	Quantity       int64            `json:"quantity"`
	Total          types.Money      `json:"total"`
}

// Detail is the transaction snapshot sealed into the "Create transaction"
// chain block.
type Detail struct {
	Seller   account.Detail `json:"seller"`
	Buyer    account.Detail `json:"buyer"`
	Asset    holding.Detail `json:"asset"`
	Quantity int64          `json:"quantity"`
	Total    types.Money    `json:"total"`
}

// Detail returns the auditable snapshot of the transaction.
func (t *Transaction) Detail() Detail {
	return Detail{
		Seller:   t.Seller,
		Buyer:    t.Buyer,
		Asset:    t.Asset,
		Quantity: t.Quantity,
		Total:    t.Total,
	}
}

// Clone returns a copy of the transaction.
func (t *Transaction) Clone() *Transaction {
	clone := *t
	return &clone
}
