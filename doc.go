// Package harvest provides a tamper-evident agricultural supply-chain engine
// for Go applications.
//
// Harvest is designed as a library, not a service. Import it directly into
// your Go application to track produce from warehouse to retail shelf. It
// provides:
//
//   - Tiered trading accounts (warehouse, distributor, wholesale, retailer)
//   - Provenance-keyed holdings that record each lot's previous owner
//   - Atomic exchanges that settle goods and currency together
//   - A hash-chained audit ledger sealing every state change
//   - Background chain verification with pluggable violation hooks
//   - Pluggable storage (in-memory, SQLite, PostgreSQL, MongoDB)
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/harvest"
//	    "github.com/xraph/harvest/store/memory"
//	)
//
//	engine := harvest.New(memory.New())
//
//	// Start the engine (runs migrations, seals the genesis block,
//	// and begins background chain verification)
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop()
//
// # Core Concepts
//
// Accounts place participants on a trading tier. Goods may only move one
// tier downstream at a time:
//
//	farm := &account.Account{
//	    Identity: "green-acres",
//	    Tier:     account.TierWarehouse,
//	    Balance:  harvest.USD(0),
//	}
//	engine.CreateAccount(ctx, farm)
//
// Holdings are lots of named produce. A holding is identified by what it
// is, who holds it, and who held it before:
//
//	engine.UpsertHolding(ctx, &holding.Holding{
//	    Name:      "wheat",
//	    Owner:     "green-acres",
//	    Quantity:  500,
//	    UnitPrice: harvest.USD(120),
//	})
//
// Exchanges transfer goods downstream and currency upstream in one atomic
// step, sealing the movement into the chain:
//
//	txn, err := engine.Exchange(ctx, "green-acres", "midland-dist", "wheat", 200)
//
// The chain can be verified at any time; the engine also re-verifies it on
// an interval in the background:
//
//	if err := engine.VerifyChain(ctx); err != nil {
//	    // chain halted, appends rejected until resolved
//	}
//
// # Integrity
//
// Every account creation, holding change, and exchange appends a block whose
// hash covers the previous block's detail and the payload digest. Tampering
// with any historical record breaks every subsequent hash. When verification
// fails the engine halts the chain: exchanges and other mutating operations
// return ErrChainHalted until the store is repaired.
//
// All monetary calculations use integer arithmetic to avoid floating-point
// precision issues. The Money type represents amounts in the smallest
// currency unit (cents for USD, paise for INR, etc).
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	acct_01h2xcejqtf2nbrexx3vqjhp41  // Account ID
//	hold_01h2xcejqtf2nbrexx3vqjhp41  // Holding ID
//	txn_01h455vb4pex5vsknk084sn02q   // Transaction ID
//	blk_01h455vb4pex5vsknk084sn02q   // Block ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package harvest
