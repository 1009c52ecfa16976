package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/xraph/harvest/account"
	"github.com/xraph/harvest/chain"
	"github.com/xraph/harvest/exchange"
	"github.com/xraph/harvest/holding"
	"github.com/xraph/harvest/id"
	"github.com/xraph/harvest/plugin"
	"github.com/xraph/harvest/store"
	"github.com/xraph/harvest/types"
)

// Engine is the supply-chain exchange engine. Every state-changing
// operation runs inside a single mutex: the chain has exactly one tail, so
// appends are linearized, and exchanges validate and settle without lost
// updates.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger

	// mu serializes every append-producing operation.
	mu     sync.Mutex
	halted bool

	skipMigrate bool

	// Background verification
	verifyInterval time.Duration
	stopChan       chan struct{}
	wg             sync.WaitGroup
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		stopChan: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithVerifyInterval enables periodic background chain verification.
// Zero (the default) disables the worker.
func WithVerifyInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.verifyInterval = d
	}
}

// WithoutAutoMigrate skips store migration during Start, for deployments
// that manage schema out of band. Genesis sealing and background workers
// still run.
func WithoutAutoMigrate() Option {
	return func(e *Engine) {
		e.skipMigrate = true
	}
}

// Start migrates the store, seals the genesis block if the chain is empty,
// and begins background workers.
func (e *Engine) Start(ctx context.Context) error {
	if !e.skipMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return err
		}
	}

	// Seal the genesis block on first start.
	if err := e.Genesis(ctx); err != nil && !errors.Is(err, ErrGenesisExists) {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	if e.verifyInterval > 0 {
		e.wg.Add(1)
		go e.verifyWorker(ctx)
	}

	e.logger.Info("harvest engine started",
		"verify_interval", e.verifyInterval,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	close(e.stopChan)
	e.wg.Wait()

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// Plugins exposes the plugin registry.
func (e *Engine) Plugins() *plugin.Registry {
	return e.plugins
}

// Halted reports whether appends are suspended after an integrity failure.
func (e *Engine) Halted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted
}

// ──────────────────────────────────────────────────
// Chain management
// ──────────────────────────────────────────────────

// genesisPayload is the fixed payload sealed into the genesis block.
const genesisPayload = 0

// Genesis seals the genesis block. It fails with ErrGenesisExists if the
// chain already has any block.
func (e *Engine) Genesis(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.halted {
		return ErrChainHalted
	}

	_, err := e.store.LastBlock(ctx)
	if err == nil {
		return ErrGenesisExists
	}
	if !errors.Is(err, ErrChainEmpty) {
		return err
	}

	b, err := chain.Seal(nil, chain.TypeGenesis, genesisPayload, time.Now())
	if err != nil {
		return err
	}
	if err := e.store.AppendBlock(ctx, b); err != nil {
		return err
	}

	e.plugins.EmitBlockAppended(ctx, b)
	e.logger.Info("genesis block sealed", "hash", b.Hash)

	return nil
}

// VerifyChain replays the whole chain and checks every link. On a mismatch
// the engine halts all appends until Resume succeeds.
func (e *Engine) VerifyChain(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.verifyLocked(ctx)
}

func (e *Engine) verifyLocked(ctx context.Context) error {
	start := time.Now()

	blocks, err := e.store.ListBlocks(ctx, chain.ListOpts{})
	if err != nil {
		return err
	}

	if err := chain.Verify(blocks); err != nil {
		e.halted = true
		e.logger.Error("chain integrity violation, appends halted",
			"error", err,
		)
		e.plugins.EmitIntegrityViolation(ctx, err)

		return fmt.Errorf("%w: %w", ErrIntegrityViolation, err)
	}

	e.plugins.EmitChainVerified(ctx, len(blocks), time.Since(start))
	e.logger.Debug("chain verified",
		"blocks", len(blocks),
		"elapsed", time.Since(start),
	)

	return nil
}

// Resume re-verifies the chain after manual remediation and, if it passes,
// lifts the append halt.
func (e *Engine) Resume(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.halted = false
	if err := e.verifyLocked(ctx); err != nil {
		return err
	}

	e.logger.Info("chain resumed")
	return nil
}

// verifyWorker periodically re-verifies the chain.
func (e *Engine) verifyWorker(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.verifyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return

		case <-ticker.C:
			if err := e.VerifyChain(ctx); err != nil {
				e.logger.Error("background chain verification failed",
					"error", err,
				)
			}
		}
	}
}

// lastBlockLocked returns the chain tail, translating an empty chain into
// ErrGenesisMissing: no append may precede the genesis block.
func (e *Engine) lastBlockLocked(ctx context.Context) (*chain.Block, error) {
	last, err := e.store.LastBlock(ctx)
	if errors.Is(err, ErrChainEmpty) {
		return nil, ErrGenesisMissing
	}
	return last, err
}

// appendLocked seals the payload onto the chain tail and persists the
// block. Callers hold e.mu.
func (e *Engine) appendLocked(ctx context.Context, blockType chain.BlockType, payload any) (*chain.Block, error) {
	last, err := e.lastBlockLocked(ctx)
	if err != nil {
		return nil, err
	}

	b, err := chain.Seal(last, blockType, payload, time.Now())
	if err != nil {
		return nil, err
	}
	if err := e.store.AppendBlock(ctx, b); err != nil {
		return nil, err
	}

	return b, nil
}

// ──────────────────────────────────────────────────
// Account management
// ──────────────────────────────────────────────────

// CreateAccount registers a supply-chain participant and notarizes it with
// a "Create user" block.
func (e *Engine) CreateAccount(ctx context.Context, acct *account.Account) error {
	if acct.Identity == "" {
		return fmt.Errorf("%w: identity is required", ErrInvalidInput)
	}
	if !acct.Tier.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTier, acct.Tier)
	}
	if acct.Balance.Currency == "" {
		acct.Balance = types.Zero("usd")
	}

	if acct.ID == (id.AccountID{}) {
		acct.ID = id.NewAccountID()
	}
	acct.Entity = types.NewEntity()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.halted {
		return ErrChainHalted
	}
	if _, err := e.lastBlockLocked(ctx); err != nil {
		return err
	}

	if err := e.store.CreateAccount(ctx, acct); err != nil {
		return err
	}

	b, err := e.appendLocked(ctx, chain.TypeCreateUser, acct.Detail())
	if err != nil {
		return err
	}

	e.plugins.EmitAccountCreated(ctx, acct)
	e.plugins.EmitBlockAppended(ctx, b)

	e.logger.Debug("account created",
		"identity", acct.Identity,
		"tier", acct.Tier,
	)

	return nil
}

// Account retrieves an account by identity.
func (e *Engine) Account(ctx context.Context, identity string) (*account.Account, error) {
	return e.store.GetAccount(ctx, identity)
}

// Accounts lists accounts.
func (e *Engine) Accounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	return e.store.ListAccounts(ctx, opts)
}

// Credit adds funds to an account balance.
func (e *Engine) Credit(ctx context.Context, identity string, amount types.Money) (*account.Account, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: credit amount must be positive", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	acct, err := e.store.GetAccount(ctx, identity)
	if err != nil {
		return nil, err
	}
	if acct.Balance.Currency != amount.Currency {
		return nil, fmt.Errorf("%w: currency mismatch %s vs %s",
			ErrInvalidInput, acct.Balance.Currency, amount.Currency)
	}

	acct.Balance = acct.Balance.Add(amount)
	acct.Touch()

	if err := e.store.UpdateAccount(ctx, acct); err != nil {
		return nil, err
	}

	return acct, nil
}

// Debit removes funds from an account balance. The balance never goes
// negative.
func (e *Engine) Debit(ctx context.Context, identity string, amount types.Money) (*account.Account, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: debit amount must be positive", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	acct, err := e.store.GetAccount(ctx, identity)
	if err != nil {
		return nil, err
	}
	if acct.Balance.Currency != amount.Currency {
		return nil, fmt.Errorf("%w: currency mismatch %s vs %s",
			ErrInvalidInput, acct.Balance.Currency, amount.Currency)
	}
	if !acct.Balance.Covers(amount) {
		return nil, ErrInsufficientFunds
	}

	acct.Balance = acct.Balance.Subtract(amount)
	acct.Touch()

	if err := e.store.UpdateAccount(ctx, acct); err != nil {
		return nil, err
	}

	return acct, nil
}

// ──────────────────────────────────────────────────
// Holding management
// ──────────────────────────────────────────────────

// UpsertHolding merges a quantity delta into the holding row keyed by
// (name, owner, previous_owner), creating the row when absent. Descriptive
// fields (unit price, storage period, season) are overwritten on merge.
// Each successful upsert is notarized with one block: "Create asset" for a
// new row, "Update asset" for a merge.
func (e *Engine) UpsertHolding(ctx context.Context, h *holding.Holding) (*holding.Holding, error) {
	if h.Name == "" {
		return nil, fmt.Errorf("%w: holding name is required", ErrInvalidInput)
	}
	if h.Owner == "" {
		return nil, fmt.Errorf("%w: holding owner is required", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.halted {
		return nil, ErrChainHalted
	}
	if _, err := e.lastBlockLocked(ctx); err != nil {
		return nil, err
	}

	owner, err := e.store.GetAccount(ctx, h.Owner)
	if err != nil {
		return nil, err
	}

	// Key the row under the stored account identities, not the caller's
	// spelling, so later owner lookups resolve the same rows the account
	// lookup did.
	h.Owner = owner.Identity
	if h.PreviousOwner != "" {
		prev, err := e.store.GetAccount(ctx, h.PreviousOwner)
		if err == nil {
			h.PreviousOwner = prev.Identity
		} else if !errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
	}

	merged, isNew, err := e.mergeHoldingLocked(ctx, h)
	if err != nil {
		return nil, err
	}

	detail, err := e.holdingDetailLocked(ctx, merged, owner.Detail())
	if err != nil {
		return nil, err
	}

	blockType := chain.TypeUpdateAsset
	if isNew {
		blockType = chain.TypeCreateAsset
	}

	if isNew {
		if err := e.store.CreateHolding(ctx, merged); err != nil {
			return nil, err
		}
	} else {
		if err := e.store.UpdateHolding(ctx, merged); err != nil {
			return nil, err
		}
	}

	b, err := e.appendLocked(ctx, blockType, detail)
	if err != nil {
		return nil, err
	}

	if isNew {
		e.plugins.EmitHoldingCreated(ctx, merged)
	} else {
		e.plugins.EmitHoldingUpdated(ctx, merged)
	}
	e.plugins.EmitBlockAppended(ctx, b)

	e.logger.Debug("holding upserted",
		"name", merged.Name,
		"owner", merged.Owner,
		"quantity", merged.Quantity,
		"new", isNew,
	)

	return merged, nil
}

// mergeHoldingLocked resolves the merge for a quantity delta against the
// stored row with the same key. It returns the post-merge row without
// persisting it.
func (e *Engine) mergeHoldingLocked(ctx context.Context, h *holding.Holding) (*holding.Holding, bool, error) {
	existing, err := e.store.GetHoldingByKey(ctx, h.Key())
	if err == nil {
		if h.Quantity < 0 && existing.Quantity+h.Quantity < 0 {
			return nil, false, ErrInsufficientStock
		}

		merged := existing.Clone()
		merged.Quantity += h.Quantity
		merged.UnitPrice = h.UnitPrice
		merged.StoragePeriod = h.StoragePeriod
		merged.Season = h.Season
		merged.Touch()

		return merged, false, nil
	}
	if !errors.Is(err, ErrAssetNotFound) {
		return nil, false, err
	}

	if h.Quantity < 0 {
		return nil, false, ErrInsufficientStock
	}

	created := h.Clone()
	if created.ID == (id.HoldingID{}) {
		created.ID = id.NewHoldingID()
	}
	created.Entity = types.NewEntity()

	return created, true, nil
}

// holdingDetailLocked builds the auditable snapshot of a holding,
// resolving the previous owner's account when it exists.
func (e *Engine) holdingDetailLocked(ctx context.Context, h *holding.Holding, owner account.Detail) (holding.Detail, error) {
	detail := holding.Detail{
		Name:          h.Name,
		Quantity:      h.Quantity,
		UnitPrice:     h.UnitPrice,
		StoragePeriod: h.StoragePeriod,
		Season:        h.Season,
		Owner:         owner,
	}

	if h.PreviousOwner != "" {
		prev, err := e.store.GetAccount(ctx, h.PreviousOwner)
		if err == nil {
			prevDetail := prev.Detail()
			detail.PreviousOwner = &prevDetail
		} else if !errors.Is(err, ErrAccountNotFound) {
			return holding.Detail{}, err
		}
	}

	return detail, nil
}

// Holdings lists an owner's holdings.
func (e *Engine) Holdings(ctx context.Context, owner string, opts holding.ListOpts) ([]*holding.Holding, error) {
	return e.store.ListHoldings(ctx, owner, opts)
}

// ──────────────────────────────────────────────────
// Exchange
// ──────────────────────────────────────────────────

// Exchange transfers quantity units of the named goods from seller to buyer
// and settles the price against both balances. Validation, settlement, the
// transaction record, and the chain blocks all happen atomically under the
// engine mutex; a rejected exchange leaves every store untouched.
func (e *Engine) Exchange(ctx context.Context, sellerIdentity, buyerIdentity, assetName string, quantity int64) (*exchange.Transaction, error) {
	txn, err := e.exchange(ctx, sellerIdentity, buyerIdentity, assetName, quantity)
	if err != nil {
		e.plugins.EmitExchangeRejected(ctx, sellerIdentity, buyerIdentity, assetName, quantity, err)
		e.logger.Debug("exchange rejected",
			"seller", sellerIdentity,
			"buyer", buyerIdentity,
			"asset", assetName,
			"quantity", quantity,
			"error", err,
		)
		return nil, err
	}

	e.plugins.EmitExchangeCompleted(ctx, txn)
	e.logger.Debug("exchange completed",
		"seller", sellerIdentity,
		"buyer", buyerIdentity,
		"asset", assetName,
		"quantity", quantity,
		"total", txn.Total,
	)

	return txn, nil
}

func (e *Engine) exchange(ctx context.Context, sellerIdentity, buyerIdentity, assetName string, quantity int64) (*exchange.Transaction, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if assetName == "" {
		return nil, fmt.Errorf("%w: asset name is required", ErrInvalidInput)
	}
	if sellerIdentity == buyerIdentity {
		return nil, ErrSelfExchange
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.halted {
		return nil, ErrChainHalted
	}

	last, err := e.lastBlockLocked(ctx)
	if err != nil {
		return nil, err
	}

	// 1. Resolve both parties.
	seller, err := e.store.GetAccount(ctx, sellerIdentity)
	if err != nil {
		return nil, fmt.Errorf("seller %q: %w", sellerIdentity, err)
	}
	buyer, err := e.store.GetAccount(ctx, buyerIdentity)
	if err != nil {
		return nil, fmt.Errorf("buyer %q: %w", buyerIdentity, err)
	}

	// 2. Goods may only move one tier downstream.
	if !seller.Tier.CanSellTo(buyer.Tier) {
		return nil, fmt.Errorf("%w: %s cannot sell to %s", ErrIllegalTierTransfer, seller.Tier, buyer.Tier)
	}

	// 3. Stock check against the seller's oldest lot of the goods.
	sellerHolding, err := e.store.GetOldestHoldingByName(ctx, seller.Identity, assetName)
	if err != nil {
		return nil, err
	}
	if sellerHolding.Quantity < quantity {
		return nil, ErrInsufficientStock
	}

	// 4. Funds check.
	if sellerHolding.UnitPrice.Amount > 0 && quantity > math.MaxInt64/sellerHolding.UnitPrice.Amount {
		return nil, fmt.Errorf("%w: settlement total overflows int64", ErrInvalidInput)
	}
	total := sellerHolding.UnitPrice.Multiply(quantity)
	if buyer.Balance.Currency != total.Currency {
		return nil, fmt.Errorf("%w: currency mismatch %s vs %s",
			ErrInvalidInput, buyer.Balance.Currency, total.Currency)
	}
	if !buyer.Balance.Covers(total) {
		return nil, ErrInsufficientFunds
	}

	// Does the buyer hold any lot of these goods yet? Decides whether the
	// extra provenance block is sealed below.
	hadName := true
	if _, err := e.store.GetOldestHoldingByName(ctx, buyer.Identity, assetName); err != nil {
		if !errors.Is(err, ErrAssetNotFound) {
			return nil, err
		}
		hadName = false
	}

	// 5. Buyer-side merge keyed (name, buyer, seller).
	buyerHolding, buyerHoldingIsNew, err := e.mergeHoldingLocked(ctx, &holding.Holding{
		Name:          assetName,
		Owner:         buyer.Identity,
		PreviousOwner: seller.Identity,
		Quantity:      quantity,
		UnitPrice:     sellerHolding.UnitPrice,
		StoragePeriod: sellerHolding.StoragePeriod,
		Season:        sellerHolding.Season,
	})
	if err != nil {
		return nil, err
	}

	// Pre-settlement snapshots go into the asset blocks.
	preDetail := holding.Detail{
		Name:          buyerHolding.Name,
		Quantity:      buyerHolding.Quantity,
		UnitPrice:     buyerHolding.UnitPrice,
		StoragePeriod: buyerHolding.StoragePeriod,
		Season:        buyerHolding.Season,
		Owner:         buyer.Detail(),
	}
	sellerPre := seller.Detail()
	preDetail.PreviousOwner = &sellerPre

	// 6. Settlement on copies; nothing is persisted until the whole change
	// set applies.
	settledBuyer := buyer.Clone()
	settledBuyer.Balance = settledBuyer.Balance.Subtract(total)
	settledBuyer.Touch()

	settledSeller := seller.Clone()
	settledSeller.Balance = settledSeller.Balance.Add(total)
	settledSeller.Touch()

	settledSellerHolding := sellerHolding.Clone()
	settledSellerHolding.Quantity -= quantity
	settledSellerHolding.Touch()

	// 7. Seal the blocks off the current tail.
	now := time.Now()
	blockType := chain.TypeUpdateAsset
	if buyerHoldingIsNew {
		blockType = chain.TypeCreateAsset
	}

	blocks := make([]*chain.Block, 0, 3)

	b, err := chain.Seal(last, blockType, preDetail, now)
	if err != nil {
		return nil, err
	}
	blocks = append(blocks, b)

	// First acquisition of these goods by the buyer gets an extra
	// provenance block.
	if !hadName {
		b, err = chain.Seal(b, chain.TypeCreateAsset, preDetail, now)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}

	// Post-settlement snapshot for the transaction record.
	sellerPost := settledSeller.Detail()
	postDetail := preDetail
	postDetail.Owner = settledBuyer.Detail()
	postDetail.PreviousOwner = &sellerPost

	txn := &exchange.Transaction{
		Entity:         types.NewEntity(),
		ID:             id.NewTransactionID(),
		SellerIdentity: seller.Identity,
		BuyerIdentity:  buyer.Identity,
		Seller:         sellerPost,
		Buyer:          settledBuyer.Detail(),
		Asset:          postDetail,
		Quantity:       quantity,
		Total:          total,
	}

	b, err = chain.Seal(b, chain.TypeCreateTransaction, txn.Detail(), now)
	if err != nil {
		return nil, err
	}
	blocks = append(blocks, b)

	// 8. Apply the whole change set.
	set := &store.ExchangeSet{
		BuyerHolding:      buyerHolding,
		BuyerHoldingIsNew: buyerHoldingIsNew,
		SellerHolding:     settledSellerHolding,
		Seller:            settledSeller,
		Buyer:             settledBuyer,
		Transaction:       txn,
		Blocks:            blocks,
	}
	if err := e.store.ApplyExchange(ctx, set); err != nil {
		return nil, err
	}

	if buyerHoldingIsNew {
		e.plugins.EmitHoldingCreated(ctx, buyerHolding)
	} else {
		e.plugins.EmitHoldingUpdated(ctx, buyerHolding)
	}
	for _, blk := range blocks {
		e.plugins.EmitBlockAppended(ctx, blk)
	}

	return txn, nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// Transaction retrieves a transaction by ID.
func (e *Engine) Transaction(ctx context.Context, txnID id.TransactionID) (*exchange.Transaction, error) {
	return e.store.GetTransaction(ctx, txnID)
}

// Transactions lists transactions, newest first.
func (e *Engine) Transactions(ctx context.Context, opts exchange.ListOpts) ([]*exchange.Transaction, error) {
	return e.store.ListTransactions(ctx, opts)
}

// Blocks lists chain blocks in append order.
func (e *Engine) Blocks(ctx context.Context, opts chain.ListOpts) ([]*chain.Block, error) {
	return e.store.ListBlocks(ctx, opts)
}

// ChainLength returns the number of blocks on the chain.
func (e *Engine) ChainLength(ctx context.Context) (int64, error) {
	return e.store.CountBlocks(ctx)
}
