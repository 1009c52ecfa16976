package account

import (
	"testing"

	"github.com/xraph/harvest/types"
)

func TestTierValid(t *testing.T) {
	for _, tier := range Tiers() {
		if !tier.Valid() {
			t.Errorf("tier %q should be valid", tier)
		}
	}
	for _, tier := range []Tier{"", "farmer", "WAREHOUSE"} {
		if tier.Valid() {
			t.Errorf("tier %q should be invalid", tier)
		}
	}
}

func TestTierCanSellTo(t *testing.T) {
	tests := []struct {
		name    string
		seller  Tier
		buyer   Tier
		allowed bool
	}{
		{"WarehouseToDistributor", TierWarehouse, TierDistributor, true},
		{"DistributorToWholesale", TierDistributor, TierWholesale, true},
		{"WholesaleToRetailer", TierWholesale, TierRetailer, true},
		{"SkipTier", TierWarehouse, TierWholesale, false},
		{"SkipTwoTiers", TierWarehouse, TierRetailer, false},
		{"Upstream", TierDistributor, TierWarehouse, false},
		{"SameTier", TierWholesale, TierWholesale, false},
		{"RetailerIsTerminal", TierRetailer, TierWarehouse, false},
		{"UnknownSeller", Tier("farmer"), TierDistributor, false},
		{"UnknownBuyer", TierWarehouse, Tier("consumer"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.seller.CanSellTo(tt.buyer); got != tt.allowed {
				t.Errorf("CanSellTo(%q, %q): got %v, want %v", tt.seller, tt.buyer, got, tt.allowed)
			}
		})
	}
}

func TestAccountDetail(t *testing.T) {
	a := &Account{
		Identity: "mill@example.com",
		Tier:     TierWarehouse,
		Balance:  types.USD(5000),
	}

	d := a.Detail()
	if d.Identity != "mill@example.com" {
		t.Errorf("Identity: got %q", d.Identity)
	}
	if d.Tier != TierWarehouse {
		t.Errorf("Tier: got %q", d.Tier)
	}
	if !d.Balance.Equal(types.USD(5000)) {
		t.Errorf("Balance: got %v", d.Balance)
	}
}

func TestAccountClone(t *testing.T) {
	a := &Account{
		Identity: "mill@example.com",
		Tier:     TierWarehouse,
		Balance:  types.USD(100),
		Metadata: map[string]string{"region": "midwest"},
	}

	clone := a.Clone()
	clone.Balance = types.USD(999)
	clone.Metadata["region"] = "coastal"

	if !a.Balance.Equal(types.USD(100)) {
		t.Error("clone mutation leaked into original balance")
	}
	if a.Metadata["region"] != "midwest" {
		t.Error("clone mutation leaked into original metadata")
	}
}
