package mongo

import (
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

	ID              string            `grove:"id,pk"            bson:"_id"`
	Identity        string            `grove:"identity"         bson:"identity"`
	Tier            string            `grove:"tier"             bson:"tier"`
	BalanceAmount   int64             `grove:"balance_amount"   bson:"balance_amount"`
	BalanceCurrency string            `grove:"balance_currency" bson:"balance_currency"`
	CredentialHash  string            `grove:"credential_hash"  bson:"credential_hash"`
	Metadata        map[string]string `grove:"metadata"         bson:"metadata,omitempty"`
	CreatedAt       time.Time         `grove:"created_at"       bson:"created_at"`
	UpdatedAt       time.Time         `grove:"updated_at"       bson:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	return &accountModel{
		ID:              a.ID.String(),
		Identity:        a.Identity,
		Tier:            string(a.Tier),
		BalanceAmount:   a.Balance.Amount,
		BalanceCurrency: a.Balance.Currency,
		CredentialHash:  a.CredentialHash,
		Metadata:        a.Metadata,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	acctID, err := id.ParseAccountID(m.ID)
	if err != nil {
		return nil, err
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
		Metadata:       m.Metadata,
	}, nil
}

// ==================== Holding models ====================

type holdingModel struct {
	grove.BaseModel `grove:"table:harvest_holdings"`

	ID                string    `grove:"id,pk"               bson:"_id"`
	Name              string    `grove:"name"                bson:"name"`
	Owner             string    `grove:"owner"               bson:"owner"`
	PreviousOwner     string    `grove:"previous_owner"      bson:"previous_owner"`
	Quantity          int64     `grove:"quantity"            bson:"quantity"`
	UnitPriceAmount   int64     `grove:"unit_price_amount"   bson:"unit_price_amount"`
	UnitPriceCurrency string    `grove:"unit_price_currency" bson:"unit_price_currency"`
	StoragePeriod     int       `grove:"storage_period"      bson:"storage_period"`
	Season            string    `grove:"season"              bson:"season"`
	CreatedAt         time.Time `grove:"created_at"          bson:"created_at"`
	UpdatedAt         time.Time `grove:"updated_at"          bson:"updated_at"`
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

	ID             string           `grove:"id,pk"           bson:"_id"`
	SellerIdentity string           `grove:"seller_identity" bson:"seller_identity"`
	BuyerIdentity  string           `grove:"buyer_identity"  bson:"buyer_identity"`
	Seller         partyDetailModel `grove:"seller"          bson:"seller"`
	Buyer          partyDetailModel `grove:"buyer"           bson:"buyer"`
	Asset          assetDetailModel `grove:"asset"           bson:"asset"`
	Quantity       int64            `grove:"quantity"        bson:"quantity"`
	TotalAmount    int64            `grove:"total_amount"    bson:"total_amount"`
	TotalCurrency  string           `grove:"total_currency"  bson:"total_currency"`
	CreatedAt      time.Time        `grove:"created_at"      bson:"created_at"`
	UpdatedAt      time.Time        `grove:"updated_at"      bson:"updated_at"`
}

type partyDetailModel struct {
	Identity        string `bson:"identity"`
	Tier            string `bson:"tier"`
	BalanceAmount   int64  `bson:"balance_amount"`
	BalanceCurrency string `bson:"balance_currency"`
}

type assetDetailModel struct {
	Name              string            `bson:"name"`
	Quantity          int64             `bson:"quantity"`
	UnitPriceAmount   int64             `bson:"unit_price_amount"`
	UnitPriceCurrency string            `bson:"unit_price_currency"`
	StoragePeriod     int               `bson:"storage_period"`
	Season            string            `bson:"season"`
	Owner             partyDetailModel  `bson:"owner"`
	PreviousOwner     *partyDetailModel `bson:"previous_owner,omitempty"`
}

func toPartyDetailModel(d account.Detail) partyDetailModel {
	return partyDetailModel{
		Identity:        d.Identity,
		Tier:            string(d.Tier),
		BalanceAmount:   d.Balance.Amount,
		BalanceCurrency: d.Balance.Currency,
	}
}

func fromPartyDetailModel(m partyDetailModel) account.Detail {
	return account.Detail{
		Identity: m.Identity,
		Tier:     account.Tier(m.Tier),
		Balance:  types.Money{Amount: m.BalanceAmount, Currency: m.BalanceCurrency},
	}
}

func toAssetDetailModel(d holding.Detail) assetDetailModel {
	m := assetDetailModel{
		Name:              d.Name,
		Quantity:          d.Quantity,
		UnitPriceAmount:   d.UnitPrice.Amount,
		UnitPriceCurrency: d.UnitPrice.Currency,
		StoragePeriod:     d.StoragePeriod,
		Season:            d.Season,
		Owner:             toPartyDetailModel(d.Owner),
	}
	if d.PreviousOwner != nil {
		prev := toPartyDetailModel(*d.PreviousOwner)
		m.PreviousOwner = &prev
	}
	return m
}

func fromAssetDetailModel(m assetDetailModel) holding.Detail {
	d := holding.Detail{
		Name:          m.Name,
		Quantity:      m.Quantity,
		UnitPrice:     types.Money{Amount: m.UnitPriceAmount, Currency: m.UnitPriceCurrency},
		StoragePeriod: m.StoragePeriod,
		Season:        m.Season,
		Owner:         fromPartyDetailModel(m.Owner),
	}
	if m.PreviousOwner != nil {
		prev := fromPartyDetailModel(*m.PreviousOwner)
		d.PreviousOwner = &prev
	}
	return d
}

func toTransactionModel(t *exchange.Transaction) *transactionModel {
	return &transactionModel{
		ID:             t.ID.String(),
		SellerIdentity: t.SellerIdentity,
		BuyerIdentity:  t.BuyerIdentity,
		Seller:         toPartyDetailModel(t.Seller),
		Buyer:          toPartyDetailModel(t.Buyer),
		Asset:          toAssetDetailModel(t.Asset),
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

	return &exchange.Transaction{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             txnID,
		SellerIdentity: m.SellerIdentity,
		BuyerIdentity:  m.BuyerIdentity,
		Seller:         fromPartyDetailModel(m.Seller),
		Buyer:          fromPartyDetailModel(m.Buyer),
		Asset:          fromAssetDetailModel(m.Asset),
		Quantity:       m.Quantity,
		Total:          types.Money{Amount: m.TotalAmount, Currency: m.TotalCurrency},
	}, nil
}

// ==================== Block models ====================

type blockModel struct {
	grove.BaseModel `grove:"table:harvest_blocks"`

	ID           string    `grove:"id,pk"         bson:"_id"`
	PreviousHash string    `grove:"previous_hash" bson:"previous_hash"`
	Hash         string    `grove:"hash"          bson:"hash"`
	PayloadHash  string    `grove:"payload_hash"  bson:"payload_hash"`
	BlockType    string    `grove:"block_type"    bson:"block_type"`
	CreatedAt    time.Time `grove:"created_at"    bson:"created_at"`
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
