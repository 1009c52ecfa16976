package types

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"USD", USD(4900), 4900, "usd", "$49.00"},
		{"EUR", EUR(19900), 19900, "eur", "€199.00"},
		{"INR", INR(250000), 250000, "inr", "₹2500.00"},
		{"Zero USD", Zero("USD"), 0, "usd", "$0.00"},
		{"Zero INR", Zero("INR"), 0, "inr", "₹0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return USD(100).Add(USD(200)) }, USD(300)},
		{"Subtract", func() Money { return USD(500).Subtract(USD(200)) }, USD(300)},
		{"Multiply", func() Money { return USD(100).Multiply(3) }, USD(300)},
		{"MultiplyZero", func() Money { return USD(100).Multiply(0) }, USD(0)},
		{"Negate", func() Money { return USD(100).Negate() }, USD(-100)},
		{"Complex", func() Money {
			return USD(1000).Add(USD(500)).Multiply(2).Subtract(USD(1000))
		}, USD(2000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMoneyMultiplyOverflow(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		qty    int64
	}{
		{"Positive", math.MaxInt64 / 2, 3},
		{"Negative", math.MinInt64 / 2, 3},
		{"MinByMinusOne", math.MinInt64, -1},
		{"MinusOneByMin", -1, math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Error("Expected panic on int64 overflow")
				}
			}()
			_ = USD(tt.amount).Multiply(tt.qty)
		})
	}

	// Boundary products that fit must not panic.
	if got := USD(math.MaxInt64 / 2).Multiply(2); got.Amount != math.MaxInt64-1 {
		t.Errorf("Got %d, want %d", got.Amount, int64(math.MaxInt64-1))
	}
	if got := USD(math.MinInt64).Multiply(1); got.Amount != math.MinInt64 {
		t.Errorf("Got %d, want %d", got.Amount, int64(math.MinInt64))
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	// This should panic
	_ = USD(100).Add(EUR(100))
}

func TestMoneyCovers(t *testing.T) {
	tests := []struct {
		name    string
		balance Money
		price   Money
		covers  bool
	}{
		{"MoreThanEnough", USD(1000), USD(500), true},
		{"Exact", USD(500), USD(500), true},
		{"Short", USD(499), USD(500), false},
		{"ZeroPrice", USD(0), USD(0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.balance.Covers(tt.price); got != tt.covers {
				t.Errorf("Covers: got %v, want %v", got, tt.covers)
			}
		})
	}
}

func TestMoneyComparisons(t *testing.T) {
	if !USD(100).LessThan(USD(200)) {
		t.Error("100 should be less than 200")
	}
	if !USD(200).GreaterThan(USD(100)) {
		t.Error("200 should be greater than 100")
	}
	if !USD(0).IsZero() {
		t.Error("0 should be zero")
	}
	if !USD(1).IsPositive() {
		t.Error("1 should be positive")
	}
	if !USD(-1).IsNegative() {
		t.Error("-1 should be negative")
	}
}

func TestMoneyFormatMajor(t *testing.T) {
	tests := []struct {
		name  string
		money Money
		want  string
	}{
		{"Whole", USD(4900), "49.00"},
		{"WithCents", USD(4950), "49.50"},
		{"SingleCent", USD(1), "0.01"},
		{"Negative", USD(-4950), "-49.50"},
		{"ZeroDecimal", Money{Amount: 100, Currency: "jpy"}, "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.money.FormatMajor(); got != tt.want {
				t.Errorf("FormatMajor: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMoneyMarshalJSON(t *testing.T) {
	data, err := json.Marshal(USD(4900))
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, `"amount":4900`) {
		t.Errorf("expected amount in JSON, got %s", s)
	}
	if !strings.Contains(s, `"display":"$49.00"`) {
		t.Errorf("expected display in JSON, got %s", s)
	}
}
