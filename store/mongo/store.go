// Package mongo provides a MongoDB-backed Store via Grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	harvest "github.com/xraph/harvest"
	"github.com/xraph/harvest/account"
	"github.com/xraph/harvest/chain"
	"github.com/xraph/harvest/exchange"
	"github.com/xraph/harvest/holding"
	"github.com/xraph/harvest/id"
	harveststore "github.com/xraph/harvest/store"
)

// Collection name constants.
const (
	colAccounts     = "harvest_accounts"
	colHoldings     = "harvest_holdings"
	colTransactions = "harvest_transactions"
	colBlocks       = "harvest_blocks"
)

// compile-time interface check
var _ harveststore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all harvest collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("harvest/mongo: create indexes for %s: %w", col, err)
		}
	}
	return nil
}

func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAccounts: {
			{
				Keys:    bson.D{{Key: "identity", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tier", Value: 1}}},
		},
		colHoldings: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}, {Key: "owner", Value: 1}, {Key: "previous_owner", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "name", Value: 1}}},
		},
		colTransactions: {
			{Keys: bson.D{{Key: "seller_identity", Value: 1}}},
			{Keys: bson.D{{Key: "buyer_identity", Value: 1}}},
		},
		colBlocks: {
			{
				Keys:    bson.D{{Key: "hash", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "block_type", Value: 1}}},
		},
	}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Account Store ====================

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	// The engine serializes creates, so check-then-insert cannot race with
	// itself; the unique index on identity still backstops direct writers.
	if _, err := s.GetAccount(ctx, a.Identity); err == nil {
		return harvest.ErrAccountExists
	} else if !errors.Is(err, harvest.ErrAccountNotFound) {
		return err
	}

	m := toAccountModel(a)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return harvest.ErrAccountExists
		}
		return fmt.Errorf("harvest/mongo: create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, identity string) (*account.Account, error) {
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"identity": identity}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, harvest.ErrAccountNotFound
		}
		return nil, fmt.Errorf("harvest/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	filter := bson.M{}
	if opts.Tier != "" {
		filter["tier"] = string(opts.Tier)
	}

	var models []accountModel
	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "identity", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("harvest/mongo: list accounts: %w", err)
	}

	result := make([]*account.Account, len(models))
	for i := range models {
		a, err := fromAccountModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

func (s *Store) UpdateAccount(ctx context.Context, a *account.Account) error {
	m := toAccountModel(a)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("harvest/mongo: update account: %w", err)
	}
	if res.MatchedCount() == 0 {
		return harvest.ErrAccountNotFound
	}
	return nil
}

// ==================== Holding Store ====================

func (s *Store) CreateHolding(ctx context.Context, h *holding.Holding) error {
	m := toHoldingModel(h)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("harvest/mongo: create holding: %w", err)
	}
	return nil
}

func (s *Store) GetHoldingByKey(ctx context.Context, key holding.Key) (*holding.Holding, error) {
	var m holdingModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"name":           key.Name,
			"owner":          key.Owner,
			"previous_owner": key.PreviousOwner,
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, harvest.ErrAssetNotFound
		}
		return nil, fmt.Errorf("harvest/mongo: get holding: %w", err)
	}
	return fromHoldingModel(&m)
}

func (s *Store) GetOldestHoldingByName(ctx context.Context, owner, name string) (*holding.Holding, error) {
	var m holdingModel
	// TypeIDs are K-sortable, so _id order is insertion order.
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"owner": owner, "name": name}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, harvest.ErrAssetNotFound
		}
		return nil, fmt.Errorf("harvest/mongo: get oldest holding: %w", err)
	}
	return fromHoldingModel(&m)
}

func (s *Store) ListHoldings(ctx context.Context, owner string, opts holding.ListOpts) ([]*holding.Holding, error) {
	filter := bson.M{"owner": owner}
	if opts.Name != "" {
		filter["name"] = opts.Name
	}

	var models []holdingModel
	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("harvest/mongo: list holdings: %w", err)
	}

	result := make([]*holding.Holding, len(models))
	for i := range models {
		h, err := fromHoldingModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = h
	}
	return result, nil
}

func (s *Store) UpdateHolding(ctx context.Context, h *holding.Holding) error {
	m := toHoldingModel(h)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("harvest/mongo: update holding: %w", err)
	}
	if res.MatchedCount() == 0 {
		return harvest.ErrAssetNotFound
	}
	return nil
}

// ==================== Transaction Store ====================

func (s *Store) CreateTransaction(ctx context.Context, t *exchange.Transaction) error {
	m := toTransactionModel(t)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("harvest/mongo: create transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, txnID id.TransactionID) (*exchange.Transaction, error) {
	var m transactionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": txnID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, harvest.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("harvest/mongo: get transaction: %w", err)
	}
	return fromTransactionModel(&m)
}

func (s *Store) ListTransactions(ctx context.Context, opts exchange.ListOpts) ([]*exchange.Transaction, error) {
	filter := bson.M{}
	if opts.Identity != "" {
		filter["$or"] = []bson.M{
			{"seller_identity": opts.Identity},
			{"buyer_identity": opts.Identity},
		}
	}

	var models []transactionModel
	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("harvest/mongo: list transactions: %w", err)
	}

	result := make([]*exchange.Transaction, len(models))
	for i := range models {
		t, err := fromTransactionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

// ==================== Chain Store ====================

func (s *Store) AppendBlock(ctx context.Context, b *chain.Block) error {
	m := toBlockModel(b)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("harvest/mongo: append block: %w", err)
	}
	return nil
}

func (s *Store) LastBlock(ctx context.Context) (*chain.Block, error) {
	var m blockModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, harvest.ErrChainEmpty
		}
		return nil, fmt.Errorf("harvest/mongo: last block: %w", err)
	}
	return fromBlockModel(&m)
}

func (s *Store) ListBlocks(ctx context.Context, opts chain.ListOpts) ([]*chain.Block, error) {
	filter := bson.M{}
	if opts.Type != "" {
		filter["block_type"] = string(opts.Type)
	}

	var models []blockModel
	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("harvest/mongo: list blocks: %w", err)
	}

	result := make([]*chain.Block, len(models))
	for i := range models {
		b, err := fromBlockModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = b
	}
	return result, nil
}

func (s *Store) CountBlocks(ctx context.Context) (int64, error) {
	count, err := s.mdb.Collection(colBlocks).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("harvest/mongo: count blocks: %w", err)
	}
	return count, nil
}

// ==================== Exchange change set ====================

// ApplyExchange applies the settled write set. The engine serializes
// exchanges, so these statements never interleave with another exchange.
// TODO: use a causally consistent session once the driver exposes one
// through grove.
func (s *Store) ApplyExchange(ctx context.Context, set *harveststore.ExchangeSet) error {
	if set.BuyerHoldingIsNew {
		if err := s.CreateHolding(ctx, set.BuyerHolding); err != nil {
			return err
		}
	} else if err := s.UpdateHolding(ctx, set.BuyerHolding); err != nil {
		return err
	}

	if err := s.UpdateHolding(ctx, set.SellerHolding); err != nil {
		return err
	}

	if err := s.UpdateAccount(ctx, set.Seller); err != nil {
		return err
	}
	if err := s.UpdateAccount(ctx, set.Buyer); err != nil {
		return err
	}

	if err := s.CreateTransaction(ctx, set.Transaction); err != nil {
		return err
	}

	for _, b := range set.Blocks {
		if err := s.AppendBlock(ctx, b); err != nil {
			return err
		}
	}

	return nil
}

// ==================== helpers ====================

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func now() time.Time {
	return time.Now().UTC()
}
