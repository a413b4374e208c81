package fa

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"sort"

	"github.com/etnz/fa/date"
	"github.com/shopspring/decimal"
)

// this file contains the input formats: vest.json and sell.json.
//
// vest.json maps a symbol to its vests:
//
//	{"ACME": {"vests": [{"vest_date": "2023-01-15", "number_of_shares": 100, "vest_price_optional": 100.0}]}}
//
// sell.json maps a symbol to its sales, each linked to a vest by its date:
//
//	{"ACME": {"sales": [{"sell_date": "2023-08-15", "purchase_date": "2023-01-15", "number_of_shares_sold": 75, "sell_price_inr": 825000}]}}

// VestLot is a single vesting event.
type VestLot struct {
	Symbol   string
	VestDate date.Date
	Shares   int64
	// VestPrice is the acquisition price reported by the employer, when known.
	VestPrice *decimal.Decimal
}

// SaleRecord is a sale of shares from one vest lot.
type SaleRecord struct {
	Symbol   string
	SellDate date.Date
	VestDate date.Date // links the sale to its VestLot
	Shares   int64
	Proceeds decimal.Decimal // in INR
}

type jvest struct {
	VestDate  date.Date        `json:"vest_date"`
	Shares    int64            `json:"number_of_shares"`
	VestPrice *decimal.Decimal `json:"vest_price_optional"`
}

type jsale struct {
	SellDate     date.Date       `json:"sell_date"`
	PurchaseDate date.Date       `json:"purchase_date"`
	Shares       int64           `json:"number_of_shares_sold"`
	Proceeds     decimal.Decimal `json:"sell_price_inr"`
}

// DecodeVests reads vest.json. Lots are returned by symbol then vest date.
func DecodeVests(r io.Reader) ([]VestLot, error) {
	var content map[string]struct {
		Vests []jvest `json:"vests"`
	}
	if err := json.NewDecoder(r).Decode(&content); err != nil {
		return nil, fmt.Errorf("cannot decode vests: %w", err)
	}
	var vests []VestLot
	for symbol, v := range content {
		for _, jv := range v.Vests {
			vests = append(vests, VestLot{Symbol: symbol, VestDate: jv.VestDate, Shares: jv.Shares, VestPrice: jv.VestPrice})
		}
	}
	slices.SortStableFunc(vests, func(a, b VestLot) int {
		return cmp.Or(cmp.Compare(a.Symbol, b.Symbol), date.Compare(a.VestDate, b.VestDate))
	})
	return vests, nil
}

// DecodeSales reads sell.json. Sales are returned by symbol then sell date.
func DecodeSales(r io.Reader) ([]SaleRecord, error) {
	var content map[string]struct {
		Sales []jsale `json:"sales"`
	}
	if err := json.NewDecoder(r).Decode(&content); err != nil {
		return nil, fmt.Errorf("cannot decode sales: %w", err)
	}
	var sales []SaleRecord
	for symbol, v := range content {
		for _, js := range v.Sales {
			sales = append(sales, SaleRecord{Symbol: symbol, SellDate: js.SellDate, VestDate: js.PurchaseDate, Shares: js.Shares, Proceeds: js.Proceeds})
		}
	}
	slices.SortStableFunc(sales, func(a, b SaleRecord) int {
		return cmp.Or(cmp.Compare(a.Symbol, b.Symbol), date.Compare(a.SellDate, b.SellDate))
	})
	return sales, nil
}

// LoadRecords reads the vest and sell files. A missing sell file means no sale.
func LoadRecords(vestPath, sellPath string) ([]VestLot, []SaleRecord, error) {
	vf, err := os.Open(vestPath)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open vest file: %w", err)
	}
	defer vf.Close()
	vests, err := DecodeVests(vf)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", vestPath, err)
	}

	sf, err := os.Open(sellPath)
	if errors.Is(err, fs.ErrNotExist) {
		return vests, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open sell file: %w", err)
	}
	defer sf.Close()
	sales, err := DecodeSales(sf)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", sellPath, err)
	}
	return vests, sales, nil
}

// SortRecordFiles rewrites vest.json and sell.json with symbols in
// alphabetical order and entries in chronological order. Entries are kept as
// written, only their order changes. A missing sell file is ignored.
func SortRecordFiles(vestPath, sellPath string) error {
	if err := sortRecordFile(vestPath, "vests", "vest_date"); err != nil {
		return err
	}
	err := sortRecordFile(sellPath, "sales", "sell_date")
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func sortRecordFile(path, listKey, dateKey string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sorted, err := sortRecords(data, listKey, dateKey)
	if err != nil {
		return fmt.Errorf("cannot sort %s: %w", path, err)
	}
	return os.WriteFile(path, sorted, 0644)
}

// sortRecords sorts the listKey entries of every symbol by their dateKey.
func sortRecords(data []byte, listKey, dateKey string) ([]byte, error) {
	var content map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, err
	}
	for symbol, fields := range content {
		raw, ok := fields[listKey]
		if !ok {
			continue
		}
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("%s: %q is not a list: %w", symbol, listKey, err)
		}
		keys := make([]string, len(entries))
		for i, e := range entries {
			var obj map[string]any
			if err := json.Unmarshal(e, &obj); err == nil {
				keys[i], _ = obj[dateKey].(string)
			}
		}
		sort.Stable(byKey{keys, entries})
		sortedList, err := json.Marshal(entries)
		if err != nil {
			return nil, err
		}
		fields[listKey] = sortedList
	}
	// encoding/json writes map keys (symbols) in sorted order.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(content); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// byKey sorts raw entries by a parallel slice of string keys.
type byKey struct {
	keys    []string
	entries []json.RawMessage
}

func (s byKey) Len() int           { return len(s.keys) }
func (s byKey) Less(i, j int) bool { return s.keys[i] < s.keys[j] }
func (s byKey) Swap(i, j int) {
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
	s.entries[i], s.entries[j] = s.entries[j], s.entries[i]
}
