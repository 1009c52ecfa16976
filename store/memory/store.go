// Package memory provides an in-memory Store for tests and embedded use.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/xraph/harvest"
	"github.com/xraph/harvest/account"
	"github.com/xraph/harvest/chain"
	"github.com/xraph/harvest/exchange"
	"github.com/xraph/harvest/holding"
	"github.com/xraph/harvest/id"
	"github.com/xraph/harvest/store"
)

// Store is an in-memory implementation of store.Store. All values are
// cloned on the way in and out, so callers can never mutate stored state
// through a retained pointer.
type Store struct {
	mu sync.RWMutex

	// Account storage, keyed by identity
	accounts map[string]*account.Account

	// Holding storage: insertion-ordered rows plus a merge-key index
	holdings   []*holding.Holding
	holdingIdx map[holding.Key]*holding.Holding

	// Transaction storage, in creation order
	transactions []*exchange.Transaction

	// Chain storage, in append order
	blocks []*chain.Block

	closed bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		accounts:     make(map[string]*account.Account),
		holdings:     make([]*holding.Holding, 0),
		holdingIdx:   make(map[holding.Key]*holding.Holding),
		transactions: make([]*exchange.Transaction, 0),
		blocks:       make([]*chain.Block, 0),
	}
}

func normalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// Account Store implementation

func (s *Store) CreateAccount(_ context.Context, acct *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return harvest.ErrStoreClosed
	}

	key := normalizeIdentity(acct.Identity)
	if _, exists := s.accounts[key]; exists {
		return harvest.ErrAccountExists
	}
	s.accounts[key] = acct.Clone()
	return nil
}

func (s *Store) GetAccount(_ context.Context, identity string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, harvest.ErrStoreClosed
	}

	if acct, ok := s.accounts[normalizeIdentity(identity)]; ok {
		return acct.Clone(), nil
	}
	return nil, harvest.ErrAccountNotFound
}

func (s *Store) ListAccounts(_ context.Context, opts account.ListOpts) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, harvest.ErrStoreClosed
	}

	result := make([]*account.Account, 0)
	for _, acct := range s.accounts {
		if opts.Tier == "" || acct.Tier == opts.Tier {
			result = append(result, acct.Clone())
		}
	}
	sortAccounts(result)

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateAccount(_ context.Context, acct *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return harvest.ErrStoreClosed
	}

	key := normalizeIdentity(acct.Identity)
	if _, exists := s.accounts[key]; !exists {
		return harvest.ErrAccountNotFound
	}
	s.accounts[key] = acct.Clone()
	return nil
}

// Holding Store implementation

func (s *Store) CreateHolding(_ context.Context, h *holding.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return harvest.ErrStoreClosed
	}

	if _, exists := s.holdingIdx[h.Key()]; exists {
		return harvest.ErrAlreadyExists
	}

	clone := h.Clone()
	s.holdings = append(s.holdings, clone)
	s.holdingIdx[clone.Key()] = clone
	return nil
}

func (s *Store) GetHoldingByKey(_ context.Context, key holding.Key) (*holding.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, harvest.ErrStoreClosed
	}

	if h, ok := s.holdingIdx[key]; ok {
		return h.Clone(), nil
	}
	return nil, harvest.ErrAssetNotFound
}

func (s *Store) GetOldestHoldingByName(_ context.Context, owner, name string) (*holding.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, harvest.ErrStoreClosed
	}

	// holdings is insertion-ordered, so the first match is the oldest row.
	for _, h := range s.holdings {
		if h.Owner == owner && h.Name == name {
			return h.Clone(), nil
		}
	}
	return nil, harvest.ErrAssetNotFound
}

func (s *Store) ListHoldings(_ context.Context, owner string, opts holding.ListOpts) ([]*holding.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, harvest.ErrStoreClosed
	}

	result := make([]*holding.Holding, 0)
	for _, h := range s.holdings {
		if h.Owner != owner {
			continue
		}
		if opts.Name != "" && h.Name != opts.Name {
			continue
		}
		result = append(result, h.Clone())
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateHolding(_ context.Context, h *holding.Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return harvest.ErrStoreClosed
	}

	return s.updateHoldingLocked(h)
}

func (s *Store) updateHoldingLocked(h *holding.Holding) error {
	existing, ok := s.holdingIdx[h.Key()]
	if !ok {
		return harvest.ErrAssetNotFound
	}

	// Overwrite in place so insertion order (lot age) is preserved.
	*existing = *h.Clone()
	return nil
}

// Transaction Store implementation

func (s *Store) CreateTransaction(_ context.Context, txn *exchange.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return harvest.ErrStoreClosed
	}

	s.transactions = append(s.transactions, txn.Clone())
	return nil
}

func (s *Store) GetTransaction(_ context.Context, txnID id.TransactionID) (*exchange.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, harvest.ErrStoreClosed
	}

	for _, txn := range s.transactions {
		if txn.ID.String() == txnID.String() {
			return txn.Clone(), nil
		}
	}
	return nil, harvest.ErrTransactionNotFound
}

func (s *Store) ListTransactions(_ context.Context, opts exchange.ListOpts) ([]*exchange.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, harvest.ErrStoreClosed
	}

	// Newest first.
	result := make([]*exchange.Transaction, 0)
	for i := len(s.transactions) - 1; i >= 0; i-- {
		txn := s.transactions[i]
		if opts.Identity != "" && txn.SellerIdentity != opts.Identity && txn.BuyerIdentity != opts.Identity {
			continue
		}
		result = append(result, txn.Clone())
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Chain Store implementation

func (s *Store) AppendBlock(_ context.Context, b *chain.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return harvest.ErrStoreClosed
	}

	s.blocks = append(s.blocks, b.Clone())
	return nil
}

func (s *Store) LastBlock(_ context.Context) (*chain.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, harvest.ErrStoreClosed
	}

	if len(s.blocks) == 0 {
		return nil, harvest.ErrChainEmpty
	}
	return s.blocks[len(s.blocks)-1].Clone(), nil
}

func (s *Store) ListBlocks(_ context.Context, opts chain.ListOpts) ([]*chain.Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, harvest.ErrStoreClosed
	}

	result := make([]*chain.Block, 0, len(s.blocks))
	for _, b := range s.blocks {
		if opts.Type != "" && b.Type != opts.Type {
			continue
		}
		result = append(result, b.Clone())
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountBlocks(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, harvest.ErrStoreClosed
	}

	return int64(len(s.blocks)), nil
}

// ApplyExchange applies the whole change set under one lock acquisition, so
// concurrent readers never observe a half-settled exchange.
func (s *Store) ApplyExchange(_ context.Context, set *store.ExchangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return harvest.ErrStoreClosed
	}

	if set.BuyerHoldingIsNew {
		if _, exists := s.holdingIdx[set.BuyerHolding.Key()]; exists {
			return harvest.ErrAlreadyExists
		}
		clone := set.BuyerHolding.Clone()
		s.holdings = append(s.holdings, clone)
		s.holdingIdx[clone.Key()] = clone
	} else if err := s.updateHoldingLocked(set.BuyerHolding); err != nil {
		return err
	}

	if err := s.updateHoldingLocked(set.SellerHolding); err != nil {
		return err
	}

	s.accounts[normalizeIdentity(set.Seller.Identity)] = set.Seller.Clone()
	s.accounts[normalizeIdentity(set.Buyer.Identity)] = set.Buyer.Clone()

	s.transactions = append(s.transactions, set.Transaction.Clone())

	for _, b := range set.Blocks {
		s.blocks = append(s.blocks, b.Clone())
	}

	return nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return harvest.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
