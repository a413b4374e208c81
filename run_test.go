package fa

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/etnz/fa/date"
)

// writeDataDir creates a data directory with the given records and a cache
// priced for the single lot scenario of 2023.
func writeDataDir(t *testing.T, vests, sales string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, VestFile), []byte(vests), 0644); err != nil {
		t.Fatal(err)
	}
	if sales != "" {
		if err := os.WriteFile(filepath.Join(dir, SellFile), []byte(sales), 0644); err != nil {
			t.Fatal(err)
		}
	}
	c := NewCache(filepath.Join(dir, CacheFile))
	fillPrices(c, "ACME", date.YearRange(2023), 100)
	c.PutPrice("ACME", d("2023-06-01"), dec(125))
	c.PutPrice("ACME", d("2023-12-31"), dec(110))
	c.PutRate(d("2023-01-15"), dec(82.75))
	c.PutRate(d("2023-06-01"), dec(83.25))
	c.PutRate(d("2023-12-31"), dec(83.00))
	c.PutCompany("ACME", CompanyInfo{Name: "ACME Corp"})
	if err := c.Save(); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRun(t *testing.T) {
	dir := writeDataDir(t,
		`{"ACME": {"vests": [{"vest_date": "2023-01-15", "number_of_shares": 100}, {"vest_date": "2022-03-01", "number_of_shares": 10}]}}`,
		`{"ACME": {"sales": [{"sell_date": "2022-06-01", "purchase_date": "2022-03-01", "number_of_shares_sold": 10, "sell_price_inr": 80000}]}}`,
	)

	report, err := Run(context.Background(), Options{Year: 2023, DataDir: dir, Today: d("2024-03-10")})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Rows) != 1 || len(report.Skipped) != 1 || len(report.Failures) != 0 {
		t.Errorf("Run() = %d rows, %d skipped, %d failures, want 1, 1, 0", len(report.Rows), len(report.Skipped), len(report.Failures))
	}

	got, err := os.ReadFile(report.Output)
	if err != nil {
		t.Fatalf("cannot read schedule: %v", err)
	}
	want := `"Country/Region name","Country Name and Code","Name of entity","Address of entity","ZIP Code","Nature of entity","Date of acquiring the interest","Initial value of the investment","Peak value of investment during the Period","Closing balance","Total gross amount paid/credited with respect to the holding during the period","Total gross proceeds from sale or redemption of investment during the period"
1,2,ACME Corp,N/A,N/A,Public Company,2023-01-15,827500,1040625,913000,0,0
`
	if string(got) != want {
		t.Errorf("schedule =\n%s\nwant\n%s", got, want)
	}

	// a second run with the same cache writes the same schedule
	cacheBefore, _ := os.ReadFile(filepath.Join(dir, CacheFile))
	if _, err := Run(context.Background(), Options{Year: 2023, DataDir: dir, Today: d("2024-03-10")}); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	again, _ := os.ReadFile(report.Output)
	cacheAfter, _ := os.ReadFile(filepath.Join(dir, CacheFile))
	if string(again) != string(got) {
		t.Errorf("second run wrote a different schedule")
	}
	if string(cacheAfter) != string(cacheBefore) {
		t.Errorf("second run changed the cache")
	}
}

func TestRun_Incomplete(t *testing.T) {
	dir := writeDataDir(t,
		`{"ACME": {"vests": [{"vest_date": "2023-01-15", "number_of_shares": 100}]}, "UBER": {"vests": [{"vest_date": "2023-02-15", "number_of_shares": 10}]}}`,
		"",
	)

	report, err := Run(context.Background(), Options{Year: 2023, DataDir: dir, Today: d("2024-03-10")})
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("Run() error = %v, want ErrIncomplete", err)
	}
	if len(report.Rows) != 1 || len(report.Failures) != 1 {
		t.Errorf("Run() = %d rows, %d failures, want 1, 1", len(report.Rows), len(report.Failures))
	}
	var missing *MissingDataError
	if !errors.As(report.Failures[0], &missing) || missing.Symbol != "UBER" {
		t.Errorf("failure = %v, want missing data for UBER", report.Failures[0])
	}
	if _, err := os.Stat(filepath.Join(dir, ScheduleFile)); !os.IsNotExist(err) {
		t.Errorf("an incomplete schedule was written")
	}
}

func TestRun_InvalidInput(t *testing.T) {
	testCases := []struct {
		name  string
		year  int
		sales string
	}{
		{"over sell", 2023, `{"ACME": {"sales": [{"sell_date": "2023-08-15", "purchase_date": "2023-01-15", "number_of_shares_sold": 101, "sell_price_inr": 1}]}}`},
		{"current year", 2024, ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeDataDir(t, `{"ACME": {"vests": [{"vest_date": "2023-01-15", "number_of_shares": 100}]}}`, tc.sales)
			market := newFakeMarket()
			_, err := Run(context.Background(), Options{Year: tc.year, DataDir: dir, Today: d("2024-03-10"), AllowFetch: true, Market: market})
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Run() error = %v, want ErrValidation", err)
			}
			if market.calls != 0 {
				t.Errorf("provider called %d times before validation failed", market.calls)
			}
		})
	}
}

func TestFetchRequired_DayRangeOnlyWhenValidating(t *testing.T) {
	testCases := []struct {
		name      string
		validate  bool
		wantCalls int
	}{
		{"validating", true, 1},
		{"skip validation", false, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCache("")
			c.PutPrice("ACME", d("2023-01-01"), dec(100))
			c.PutPrice("ACME", d("2023-12-31"), dec(110))
			c.PutRate(d("2023-01-16"), dec(82))
			c.PutRate(d("2023-12-31"), dec(83))
			c.PutCompany("ACME", CompanyInfo{Name: "ACME Corp"})
			market := newFakeMarket()
			r := NewResolver(c, market, &fakeRates{})

			lots := []Lot{{VestLot: VestLot{Symbol: "ACME", VestDate: d("2023-01-16"), Shares: 10, VestPrice: decPtr(89)}}}
			fetchRequired(context.Background(), r, lots, 2023, tc.validate)

			if market.calls != tc.wantCalls {
				t.Errorf("provider called %d times, want %d", market.calls, tc.wantCalls)
			}
		})
	}
}
