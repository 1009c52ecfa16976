// Package sqlite provides a SQLite-backed Store via Grove ORM.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	harvest "github.com/xraph/harvest"
	"github.com/xraph/harvest/account"
	"github.com/xraph/harvest/chain"
	"github.com/xraph/harvest/exchange"
	"github.com/xraph/harvest/holding"
	"github.com/xraph/harvest/id"
	harveststore "github.com/xraph/harvest/store"
)

// compile-time interface check
var _ harveststore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("harvest/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("harvest/sqlite: migration failed: %w", err)
	}
	return nil
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
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetAccount(ctx context.Context, identity string) (*account.Account, error) {
	m := new(accountModel)
	err := s.sdb.NewSelect(m).
		Where("identity = ?", identity).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, harvest.ErrAccountNotFound
		}
		return nil, err
	}
	return fromAccountModel(m)
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	var models []accountModel
	q := s.sdb.NewSelect(&models)

	if opts.Tier != "" {
		q = q.Where("tier = ?", string(opts.Tier))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("identity ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return harvest.ErrAccountNotFound
	}
	return nil
}

// ==================== Holding Store ====================

func (s *Store) CreateHolding(ctx context.Context, h *holding.Holding) error {
	m := toHoldingModel(h)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetHoldingByKey(ctx context.Context, key holding.Key) (*holding.Holding, error) {
	m := new(holdingModel)
	err := s.sdb.NewSelect(m).
		Where("name = ?", key.Name).
		Where("owner = ?", key.Owner).
		Where("previous_owner = ?", key.PreviousOwner).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, harvest.ErrAssetNotFound
		}
		return nil, err
	}
	return fromHoldingModel(m)
}

func (s *Store) GetOldestHoldingByName(ctx context.Context, owner, name string) (*holding.Holding, error) {
	m := new(holdingModel)
	// TypeIDs are K-sortable, so ordering by id gives insertion order.
	err := s.sdb.NewSelect(m).
		Where("owner = ?", owner).
		Where("name = ?", name).
		OrderExpr("id ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, harvest.ErrAssetNotFound
		}
		return nil, err
	}
	return fromHoldingModel(m)
}

func (s *Store) ListHoldings(ctx context.Context, owner string, opts holding.ListOpts) ([]*holding.Holding, error) {
	var models []holdingModel
	q := s.sdb.NewSelect(&models).Where("owner = ?", owner)

	if opts.Name != "" {
		q = q.Where("name = ?", opts.Name)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return harvest.ErrAssetNotFound
	}
	return nil
}

// ==================== Transaction Store ====================

func (s *Store) CreateTransaction(ctx context.Context, t *exchange.Transaction) error {
	m := toTransactionModel(t)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetTransaction(ctx context.Context, txnID id.TransactionID) (*exchange.Transaction, error) {
	m := new(transactionModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", txnID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, harvest.ErrTransactionNotFound
		}
		return nil, err
	}
	return fromTransactionModel(m)
}

func (s *Store) ListTransactions(ctx context.Context, opts exchange.ListOpts) ([]*exchange.Transaction, error) {
	var models []transactionModel
	q := s.sdb.NewSelect(&models)

	if opts.Identity != "" {
		q = q.Where("(seller_identity = ? OR buyer_identity = ?)", opts.Identity, opts.Identity)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) LastBlock(ctx context.Context) (*chain.Block, error) {
	m := new(blockModel)
	err := s.sdb.NewSelect(m).
		OrderExpr("id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, harvest.ErrChainEmpty
		}
		return nil, err
	}
	return fromBlockModel(m)
}

func (s *Store) ListBlocks(ctx context.Context, opts chain.ListOpts) ([]*chain.Block, error) {
	var models []blockModel
	q := s.sdb.NewSelect(&models)

	if opts.Type != "" {
		q = q.Where("block_type = ?", string(opts.Type))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	var count int64
	err := s.sdb.NewRaw(`SELECT COUNT(*) FROM harvest_blocks`).Scan(ctx, &count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ==================== Exchange change set ====================

// ApplyExchange applies the settled write set. The engine serializes
// exchanges, so these statements never interleave with another exchange.
// TODO: wrap in a grove transaction once the sqlite driver exposes one.
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

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func now() time.Time {
	return time.Now().UTC()
}
