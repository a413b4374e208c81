package fa

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	vests := []VestLot{
		{Symbol: "ACME", VestDate: d("2023-01-15"), Shares: 100},
		{Symbol: "ACME", VestDate: d("2022-04-15"), Shares: 50},
		{Symbol: "ACME", VestDate: d("2023-04-15"), Shares: 0},
	}

	testCases := []struct {
		name    string
		vests   []VestLot
		sales   []SaleRecord
		wantErr string // substring, empty for success
	}{
		{
			name:  "valid partial sales",
			vests: vests,
			sales: []SaleRecord{
				{Symbol: "ACME", SellDate: d("2023-08-15"), VestDate: d("2023-01-15"), Shares: 30},
				{Symbol: "ACME", SellDate: d("2023-03-01"), VestDate: d("2023-01-15"), Shares: 70},
			},
		},
		{
			name:    "over sell",
			vests:   vests,
			sales:   []SaleRecord{{Symbol: "ACME", SellDate: d("2023-08-15"), VestDate: d("2022-04-15"), Shares: 30}, {Symbol: "ACME", SellDate: d("2023-09-15"), VestDate: d("2022-04-15"), Shares: 21}},
			wantErr: "trying to sell 51 shares but only 50 vested",
		},
		{
			name:    "missing vest",
			vests:   vests,
			sales:   []SaleRecord{{Symbol: "ACME", SellDate: d("2023-08-15"), VestDate: d("2023-01-16"), Shares: 10}},
			wantErr: "no matching vest",
		},
		{
			name:    "other symbol",
			vests:   vests,
			sales:   []SaleRecord{{Symbol: "UBER", SellDate: d("2023-08-15"), VestDate: d("2023-01-15"), Shares: 10}},
			wantErr: "no matching vest",
		},
		{
			name:    "sold on vest date",
			vests:   vests,
			sales:   []SaleRecord{{Symbol: "ACME", SellDate: d("2023-01-15"), VestDate: d("2023-01-15"), Shares: 10}},
			wantErr: "must be after vest date",
		},
		{
			name:    "sold before vest date",
			vests:   vests,
			sales:   []SaleRecord{{Symbol: "ACME", SellDate: d("2023-01-10"), VestDate: d("2023-01-15"), Shares: 10}},
			wantErr: "must be after vest date",
		},
		{
			name:    "negative vest",
			vests:   []VestLot{{Symbol: "ACME", VestDate: d("2023-01-15"), Shares: -1}},
			wantErr: "negative number of shares",
		},
		{
			name:    "duplicate vest",
			vests:   []VestLot{{Symbol: "ACME", VestDate: d("2023-01-15"), Shares: 1}, {Symbol: "ACME", VestDate: d("2023-01-15"), Shares: 2}},
			wantErr: "duplicate vest",
		},
		{
			name:  "zero share sale is ignored",
			vests: vests,
			sales: []SaleRecord{{Symbol: "ACME", SellDate: d("2023-01-10"), VestDate: d("2099-01-15"), Shares: 0}},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lots, err := Validate(tc.vests, tc.sales)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				if len(lots) != 2 {
					t.Errorf("Validate() returned %d lots, want 2 (zero share vest dropped)", len(lots))
				}
				return
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_CollectsEveryError(t *testing.T) {
	vests := []VestLot{{Symbol: "ACME", VestDate: d("2023-01-15"), Shares: 10}}
	sales := []SaleRecord{
		{Symbol: "ACME", SellDate: d("2023-01-10"), VestDate: d("2023-01-15"), Shares: 5},
		{Symbol: "ACME", SellDate: d("2023-08-15"), VestDate: d("2023-02-15"), Shares: 5},
		{Symbol: "ACME", SellDate: d("2023-09-15"), VestDate: d("2023-01-15"), Shares: 6},
	}
	_, err := Validate(vests, sales)
	for _, want := range []string{"must be after vest date", "no matching vest", "trying to sell 11 shares"} {
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %v, want it to contain %q", err, want)
		}
	}
}

func TestLot_Timeline(t *testing.T) {
	lots, err := Validate(
		[]VestLot{{Symbol: "ACME", VestDate: d("2022-01-15"), Shares: 200}},
		[]SaleRecord{
			{Symbol: "ACME", SellDate: d("2024-02-01"), VestDate: d("2022-01-15"), Shares: 25, Proceeds: dec(300000)},
			{Symbol: "ACME", SellDate: d("2023-08-15"), VestDate: d("2022-01-15"), Shares: 75, Proceeds: dec(825000)},
			{Symbol: "ACME", SellDate: d("2022-11-15"), VestDate: d("2022-01-15"), Shares: 50, Proceeds: dec(400000)},
		},
	)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	l := lots[0]

	if got := l.Remaining(); got != 50 {
		t.Errorf("Remaining() = %d, want 50", got)
	}
	if got := l.Sales[0].SellDate; got != d("2022-11-15") {
		t.Errorf("first sale on %s, want sales in sell date order", got)
	}

	testCases := []struct {
		day  string
		want int64
	}{
		{"2022-06-01", 200},
		{"2022-11-15", 150}, // sold that day
		{"2023-08-14", 150},
		{"2023-08-15", 75},
		{"2024-12-31", 50},
	}
	for _, tc := range testCases {
		if got := l.HeldOn(d(tc.day)); got != tc.want {
			t.Errorf("HeldOn(%s) = %d, want %d", tc.day, got, tc.want)
		}
	}

	if got := l.ProceedsIn(2023); !got.Equal(dec(825000)) {
		t.Errorf("ProceedsIn(2023) = %v, want 825000", got)
	}
	if got := l.ProceedsIn(2021); !got.IsZero() {
		t.Errorf("ProceedsIn(2021) = %v, want 0", got)
	}
}
