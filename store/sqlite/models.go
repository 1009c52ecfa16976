package sqlite

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/harvest/account"
	"github.com/xraph/harvest/chain"
	"github.com/xraph/harvest/exchange"
	"github.com/xraph/harvest/holding"
	"github.com/xraph/harvest/id"
	"github.com/xraph/harvest/types"
)

// ==================== Account models ====================

type accountModel struct {
	grove.BaseModel `grove:"table:harvest_accounts"`

	ID              string          `grove:"id,pk"`
	Identity        string          `grove:"identity"`
	Tier            string          `grove:"tier"`
	BalanceAmount   int64           `grove:"balance_amount"`
	BalanceCurrency string          `grove:"balance_currency"`
	CredentialHash  string          `grove:"credential_hash"`
	Metadata        json.RawMessage `grove:"metadata"`
	CreatedAt       time.Time       `grove:"created_at"`
	UpdatedAt       time.Time       `grove:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	metadata, _ := json.Marshal(a.Metadata) //nolint:errcheck // best-effort

	return &accountModel{
		ID:              a.ID.String(),
		Identity:        a.Identity,
		Tier:            string(a.Tier),
		BalanceAmount:   a.Balance.Amount,
		BalanceCurrency: a.Balance.Currency,
		CredentialHash:  a.CredentialHash,
		Metadata:        metadata,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	acctID, err := id.ParseAccountID(m.ID)
	if err != nil {
		return nil, err
	}

	var metadata map[string]string
	if len(m.Metadata) > 0 && string(m.Metadata) != "null" {
		_ = json.Unmarshal(m.Metadata, &metadata) //nolint:errcheck // best-effort
	}

	return &account.Account{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             acctID,
		Identity:       m.Identity,
		Tier:           account.Tier(m.Tier),
		Balance:        types.Money{Amount: m.BalanceAmount, Currency: m.BalanceCurrency},
		CredentialHash: m.CredentialHash,
		Metadata:       metadata,
	}, nil
}

// ==================== Holding models ====================

type holdingModel struct {
	grove.BaseModel `grove:"table:harvest_holdings"`

	ID                string    `grove:"id,pk"`
	Name              string    `grove:"name"`
	Owner             string    `grove:"owner"`
	PreviousOwner     string    `grove:"previous_owner"`
	Quantity          int64     `grove:"quantity"`
	UnitPriceAmount   int64     `grove:"unit_price_amount"`
	UnitPriceCurrency string    `grove:"unit_price_currency"`
	StoragePeriod     int       `grove:"storage_period"`
	Season            string    `grove:"season"`
	CreatedAt         time.Time `grove:"created_at"`
	UpdatedAt         time.Time `grove:"updated_at"`
}

func toHoldingModel(h *holding.Holding) *holdingModel {
	return &holdingModel{
		ID:                h.ID.String(),
		Name:              h.Name,
		Owner:             h.Owner,
		PreviousOwner:     h.PreviousOwner,
		Quantity:          h.Quantity,
		UnitPriceAmount:   h.UnitPrice.Amount,
		UnitPriceCurrency: h.UnitPrice.Currency,
		StoragePeriod:     h.StoragePeriod,
		Season:            h.Season,
		CreatedAt:         h.CreatedAt,
		UpdatedAt:         h.UpdatedAt,
	}
}

func fromHoldingModel(m *holdingModel) (*holding.Holding, error) {
	holdID, err := id.ParseHoldingID(m.ID)
	if err != nil {
		return nil, err
	}

	return &holding.Holding{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            holdID,
		Name:          m.Name,
		Owner:         m.Owner,
		PreviousOwner: m.PreviousOwner,
		Quantity:      m.Quantity,
		UnitPrice:     types.Money{Amount: m.UnitPriceAmount, Currency: m.UnitPriceCurrency},
		StoragePeriod: m.StoragePeriod,
		Season:        m.Season,
	}, nil
}

// ==================== Transaction models ====================

type transactionModel struct {
	grove.BaseModel `grove:"table:harvest_transactions"`

	ID             string          `grove:"id,pk"`
	SellerIdentity string          `grove:"seller_identity"`
	BuyerIdentity  string          `grove:"buyer_identity"`
	Seller         json.RawMessage `grove:"seller"`
	Buyer          json.RawMessage `grove:"buyer"`
	Asset          json.RawMessage `grove:"asset"`
	Quantity       int64           `grove:"quantity"`
	TotalAmount    int64           `grove:"total_amount"`
	TotalCurrency  string          `grove:"total_currency"`
	CreatedAt      time.Time       `grove:"created_at"`
	UpdatedAt      time.Time       `grove:"updated_at"`
}

func toTransactionModel(t *exchange.Transaction) *transactionModel {
	seller, _ := json.Marshal(t.Seller) //nolint:errcheck // best-effort
	buyer, _ := json.Marshal(t.Buyer)   //nolint:errcheck // best-effort
	asset, _ := json.Marshal(t.Asset)   //nolint:errcheck // best-effort

	return &transactionModel{
		ID:             t.ID.String(),
		SellerIdentity: t.SellerIdentity,
		BuyerIdentity:  t.BuyerIdentity,
		Seller:         seller,
		Buyer:          buyer,
		Asset:          asset,
		Quantity:       t.Quantity,
		TotalAmount:    t.Total.Amount,
		TotalCurrency:  t.Total.Currency,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func fromTransactionModel(m *transactionModel) (*exchange.Transaction, error) {
	txnID, err := id.ParseTransactionID(m.ID)
	if err != nil {
		return nil, err
	}

	txn := &exchange.Transaction{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             txnID,
		SellerIdentity: m.SellerIdentity,
		BuyerIdentity:  m.BuyerIdentity,
		Quantity:       m.Quantity,
		Total:          types.Money{Amount: m.TotalAmount, Currency: m.TotalCurrency},
	}

	if len(m.Seller) > 0 {
		_ = json.Unmarshal(m.Seller, &txn.Seller) //nolint:errcheck // best-effort
	}
	if len(m.Buyer) > 0 {
		_ = json.Unmarshal(m.Buyer, &txn.Buyer) //nolint:errcheck // best-effort
	}
	if len(m.Asset) > 0 {
		_ = json.Unmarshal(m.Asset, &txn.Asset) //nolint:errcheck // best-effort
	}

	return txn, nil
}

// ==================== Block models ====================

type blockModel struct {
	grove.BaseModel `grove:"table:harvest_blocks"`

	ID           string    `grove:"id,pk"`
	PreviousHash string    `grove:"previous_hash"`
	Hash         string    `grove:"hash"`
	PayloadHash  string    `grove:"payload_hash"`
	BlockType    string    `grove:"block_type"`
	CreatedAt    time.Time `grove:"created_at"`
}

func toBlockModel(b *chain.Block) *blockModel {
	return &blockModel{
		ID:           b.ID.String(),
		PreviousHash: b.PreviousHash,
		Hash:         b.Hash,
		PayloadHash:  b.PayloadHash,
		BlockType:    string(b.Type),
		CreatedAt:    b.CreatedAt,
	}
}

func fromBlockModel(m *blockModel) (*chain.Block, error) {
	blockID, err := id.ParseBlockID(m.ID)
	if err != nil {
		return nil, err
	}

	return &chain.Block{
		ID:           blockID,
		PreviousHash: m.PreviousHash,
		Hash:         m.Hash,
		PayloadHash:  m.PayloadHash,
		Type:         chain.BlockType(m.BlockType),
		CreatedAt:    m.CreatedAt,
	}, nil
}
