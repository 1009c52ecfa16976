package harvest_test

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/harvest"
	"github.com/xraph/harvest/account"
	"github.com/xraph/harvest/holding"
	"github.com/xraph/harvest/store/memory"
	"github.com/xraph/harvest/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Initialize the engine
		engine := harvest.New(store,
			harvest.WithLogger(slog.Default()),
			harvest.WithVerifyInterval(time.Minute),
		)

		// Start the engine (seals the genesis block)
		ctx := context.Background()
		if err := engine.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer engine.Stop()

		// Register the supply chain participants
		farm := &account.Account{
			Identity: "green-acres@example.com",
			Tier:     account.TierWarehouse,
			Balance:  harvest.USD(0),
		}
		if err := engine.CreateAccount(ctx, farm); err != nil {
			t.Fatal(err)
		}

		dist := &account.Account{
			Identity: "midland-dist@example.com",
			Tier:     account.TierDistributor,
			Balance:  harvest.USD(500000), // $5000.00
		}
		if err := engine.CreateAccount(ctx, dist); err != nil {
			t.Fatal(err)
		}

		// Record the farm's wheat harvest
		_, err := engine.UpsertHolding(ctx, &holding.Holding{
			Name:          "wheat",
			Owner:         farm.Identity,
			Quantity:      500,
			UnitPrice:     harvest.USD(120), // $1.20 per unit
			StoragePeriod: 90,
			Season:        "rabi",
		})
		if err != nil {
			t.Fatal(err)
		}

		// Move 200 units one tier downstream
		txn, err := engine.Exchange(ctx, farm.Identity, dist.Identity, "wheat", 200)
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("settled %s for %s\n", txn.ID, txn.Total)

		if !txn.Total.Equal(types.USD(24000)) {
			t.Errorf("expected $240.00 total, got %v", txn.Total)
		}

		// Verify the audit chain end to end
		if err := engine.VerifyChain(ctx); err != nil {
			t.Fatal(err)
		}

		length, err := engine.ChainLength(ctx)
		if err != nil {
			t.Fatal(err)
		}
		// genesis + 2 users + 1 asset + 3 exchange blocks
		if length != 7 {
			t.Errorf("expected 7 blocks, got %d", length)
		}
	})
}
