package id_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/xraph/harvest/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"AccountID", id.NewAccountID, "acct_"},
		{"HoldingID", id.NewHoldingID, "hold_"},
		{"TransactionID", id.NewTransactionID, "txn_"},
		{"BlockID", id.NewBlockID, "blk_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixAccount)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixAccount {
		t.Errorf("expected prefix %q, got %q", id.PrefixAccount, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"AccountID", id.NewAccountID, id.ParseAccountID},
		{"HoldingID", id.NewHoldingID, id.ParseHoldingID},
		{"TransactionID", id.NewTransactionID, id.ParseTransactionID},
		{"BlockID", id.NewBlockID, id.ParseBlockID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round trip mismatch: got %q, want %q", parsed.String(), original.String())
			}
		})
	}
}

func TestParseRejectsWrongPrefix(t *testing.T) {
	acct := id.NewAccountID()
	if _, err := id.ParseBlockID(acct.String()); err == nil {
		t.Error("expected error parsing account ID as block ID")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "notanid", "acct_", "acct_!!!"} {
		if _, err := id.Parse(s); err == nil {
			t.Errorf("expected error parsing %q", s)
		}
	}
}

func TestIDsAreKSortable(t *testing.T) {
	var ids []string
	for i := 0; i < 10; i++ {
		ids = append(ids, id.NewBlockID().String())
	}
	if !sort.StringsAreSorted(ids) {
		t.Error("expected sequentially generated IDs to sort in creation order")
	}
}

func TestMarshalText(t *testing.T) {
	original := id.NewHoldingID()
	data, err := original.MarshalText()
	if err != nil {
		t.Fatal(err)
	}

	var parsed id.ID
	if err := parsed.UnmarshalText(data); err != nil {
		t.Fatal(err)
	}
	if parsed.String() != original.String() {
		t.Errorf("round trip mismatch: got %q, want %q", parsed.String(), original.String())
	}
}
