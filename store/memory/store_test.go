package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/harvest"
	"github.com/xraph/harvest/account"
	"github.com/xraph/harvest/chain"
	"github.com/xraph/harvest/holding"
	"github.com/xraph/harvest/id"
	"github.com/xraph/harvest/types"
)

func newAccount(identity string, tier account.Tier) *account.Account {
	return &account.Account{
		Entity:   types.NewEntity(),
		ID:       id.NewAccountID(),
		Identity: identity,
		Tier:     tier,
		Balance:  types.USD(10000),
	}
}

func newHolding(name, owner, prevOwner string, qty int64) *holding.Holding {
	return &holding.Holding{
		Entity:        types.NewEntity(),
		ID:            id.NewHoldingID(),
		Name:          name,
		Owner:         owner,
		PreviousOwner: prevOwner,
		Quantity:      qty,
		UnitPrice:     types.USD(100),
	}
}

func TestAccountCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	acct := newAccount("mill@example.com", account.TierWarehouse)
	if err := s.CreateAccount(ctx, acct); err != nil {
		t.Fatal(err)
	}

	t.Run("DuplicateIdentity", func(t *testing.T) {
		dup := newAccount("mill@example.com", account.TierDistributor)
		if err := s.CreateAccount(ctx, dup); !errors.Is(err, harvest.ErrAccountExists) {
			t.Errorf("expected ErrAccountExists, got %v", err)
		}
	})

	t.Run("GetNormalizesIdentity", func(t *testing.T) {
		got, err := s.GetAccount(ctx, "  MILL@example.COM ")
		if err != nil {
			t.Fatal(err)
		}
		if got.Identity != "mill@example.com" {
			t.Errorf("Identity: got %q", got.Identity)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		if _, err := s.GetAccount(ctx, "nobody@example.com"); !errors.Is(err, harvest.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		acct.Balance = types.USD(500)
		if err := s.UpdateAccount(ctx, acct); err != nil {
			t.Fatal(err)
		}
		got, err := s.GetAccount(ctx, acct.Identity)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Balance.Equal(types.USD(500)) {
			t.Errorf("Balance: got %v", got.Balance)
		}
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		ghost := newAccount("ghost@example.com", account.TierRetailer)
		if err := s.UpdateAccount(ctx, ghost); !errors.Is(err, harvest.ErrAccountNotFound) {
			t.Errorf("expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestListAccountsFilterAndPage(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, a := range []*account.Account{
		newAccount("a@example.com", account.TierWarehouse),
		newAccount("b@example.com", account.TierDistributor),
		newAccount("c@example.com", account.TierDistributor),
		newAccount("d@example.com", account.TierRetailer),
	} {
		if err := s.CreateAccount(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	dists, err := s.ListAccounts(ctx, account.ListOpts{Tier: account.TierDistributor})
	if err != nil {
		t.Fatal(err)
	}
	if len(dists) != 2 {
		t.Fatalf("expected 2 distributors, got %d", len(dists))
	}

	page, err := s.ListAccounts(ctx, account.ListOpts{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page))
	}
	if page[0].Identity != "b@example.com" {
		t.Errorf("expected identity-sorted page, got %q first", page[0].Identity)
	}
}

func TestStoredValuesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := New()

	acct := newAccount("mill@example.com", account.TierWarehouse)
	if err := s.CreateAccount(ctx, acct); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's struct must not affect stored state.
	acct.Balance = types.USD(0)

	got, err := s.GetAccount(ctx, "mill@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Balance.Equal(types.USD(10000)) {
		t.Error("store leaked a reference to the caller's struct")
	}

	// Mutating a read result must not affect stored state either.
	got.Balance = types.USD(1)
	again, err := s.GetAccount(ctx, "mill@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !again.Balance.Equal(types.USD(10000)) {
		t.Error("store leaked a reference through a read")
	}
}

func TestHoldingMergeKey(t *testing.T) {
	ctx := context.Background()
	s := New()

	h := newHolding("wheat", "dist@example.com", "mill@example.com", 100)
	if err := s.CreateHolding(ctx, h); err != nil {
		t.Fatal(err)
	}

	t.Run("DuplicateKey", func(t *testing.T) {
		dup := newHolding("wheat", "dist@example.com", "mill@example.com", 50)
		if err := s.CreateHolding(ctx, dup); !errors.Is(err, harvest.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("DifferentProvenanceIsDifferentRow", func(t *testing.T) {
		other := newHolding("wheat", "dist@example.com", "othermill@example.com", 50)
		if err := s.CreateHolding(ctx, other); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("GetByKey", func(t *testing.T) {
		got, err := s.GetHoldingByKey(ctx, holding.Key{
			Name: "wheat", Owner: "dist@example.com", PreviousOwner: "mill@example.com",
		})
		if err != nil {
			t.Fatal(err)
		}
		if got.Quantity != 100 {
			t.Errorf("Quantity: got %d", got.Quantity)
		}
	})

	t.Run("GetByKeyMissing", func(t *testing.T) {
		_, err := s.GetHoldingByKey(ctx, holding.Key{Name: "rice", Owner: "dist@example.com"})
		if !errors.Is(err, harvest.ErrAssetNotFound) {
			t.Errorf("expected ErrAssetNotFound, got %v", err)
		}
	})
}

func TestGetOldestHoldingByName(t *testing.T) {
	ctx := context.Background()
	s := New()

	first := newHolding("wheat", "dist@example.com", "mill-a@example.com", 10)
	second := newHolding("wheat", "dist@example.com", "mill-b@example.com", 20)
	if err := s.CreateHolding(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateHolding(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetOldestHoldingByName(ctx, "dist@example.com", "wheat")
	if err != nil {
		t.Fatal(err)
	}
	if got.PreviousOwner != "mill-a@example.com" {
		t.Errorf("expected oldest row, got previous owner %q", got.PreviousOwner)
	}

	// Updating the oldest row must not change its age.
	got.Quantity = 5
	if err := s.UpdateHolding(ctx, got); err != nil {
		t.Fatal(err)
	}

	again, err := s.GetOldestHoldingByName(ctx, "dist@example.com", "wheat")
	if err != nil {
		t.Fatal(err)
	}
	if again.PreviousOwner != "mill-a@example.com" || again.Quantity != 5 {
		t.Errorf("update changed lot order: got %q qty %d", again.PreviousOwner, again.Quantity)
	}
}

func TestChainStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.LastBlock(ctx); !errors.Is(err, harvest.ErrChainEmpty) {
		t.Errorf("expected ErrChainEmpty, got %v", err)
	}

	var prev *chain.Block
	for i := 0; i < 3; i++ {
		var b *chain.Block
		var err error
		if i == 0 {
			b, err = chain.Seal(nil, chain.TypeGenesis, 0, time.Now())
		} else {
			b, err = chain.Seal(prev, chain.TypeCreateAsset, map[string]any{"seq": i}, time.Now())
		}
		if err != nil {
			t.Fatal(err)
		}
		if err := s.AppendBlock(ctx, b); err != nil {
			t.Fatal(err)
		}
		prev = b
	}

	last, err := s.LastBlock(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if last.Hash != prev.Hash {
		t.Error("LastBlock should return the most recent append")
	}

	count, err := s.CountBlocks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("CountBlocks: got %d, want 3", count)
	}

	genesisOnly, err := s.ListBlocks(ctx, chain.ListOpts{Type: chain.TypeGenesis})
	if err != nil {
		t.Fatal(err)
	}
	if len(genesisOnly) != 1 {
		t.Errorf("expected 1 genesis block, got %d", len(genesisOnly))
	}
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if err := s.Ping(ctx); !errors.Is(err, harvest.ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed from Ping, got %v", err)
	}
	if err := s.CreateAccount(ctx, newAccount("x@example.com", account.TierWarehouse)); !errors.Is(err, harvest.ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed from CreateAccount, got %v", err)
	}
}
