package fa

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/etnz/fa/date"
	"github.com/shopspring/decimal"
)

// The cache file is a single json document:
//
//	{
//	  "stocks": {
//	    "ACME": {
//	      "prices": {"2023-01-15": "100.00"},
//	      "company_info": {"country": "United States", "name": "ACME Corp", ...},
//	      "high_low": {"2023-01-15": {"low": "98.00", "high": "102.00"}}
//	    }
//	  },
//	  "exchange_rates": {"2023-01-15": "82.75"},
//	  "country_mapping": {"United States": 2}
//	}
//
// Symbols, dates and country names are written in sorted order and amounts with
// two decimals, so that saving an unchanged cache rewrites the very same bytes.
// Amounts are read back from either json strings or json numbers.

type jhighLow struct {
	Low  decimal.Decimal `json:"low"`
	High decimal.Decimal `json:"high"`
}

type jstock struct {
	Prices      map[date.Date]decimal.Decimal `json:"prices"`
	CompanyInfo CompanyInfo                   `json:"company_info"`
	HighLow     map[date.Date]jhighLow        `json:"high_low"`
}

type jcache struct {
	Stocks         map[string]jstock             `json:"stocks"`
	ExchangeRates  map[date.Date]decimal.Decimal `json:"exchange_rates"`
	CountryMapping map[string]int                `json:"country_mapping"`
}

// DecodeCache reads a cache document. The returned cache is not bound to any file.
func DecodeCache(r io.Reader) (*Cache, error) {
	var j jcache
	if err := json.NewDecoder(r).Decode(&j); err != nil {
		return nil, fmt.Errorf("cannot decode market data cache: %w", err)
	}

	c := NewCache("")
	if j.CountryMapping != nil {
		c.countries = j.CountryMapping
	}
	for d, v := range j.ExchangeRates {
		c.rates[d] = v
	}
	for symbol, js := range j.Stocks {
		s := c.stock(symbol, true)
		for d, v := range js.Prices {
			s.prices[d] = v
		}
		for d, v := range js.HighLow {
			s.highLow[d] = HighLow{Low: v.Low, High: v.High}
		}
		s.company = js.CompanyInfo
	}
	return c, nil
}

// EncodeCache writes c in its canonical form, indented by two spaces.
func EncodeCache(w io.Writer, c *Cache) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode market data cache: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// MarshalJSON writes the cache with its fixed key order.
func (c *Cache) MarshalJSON() ([]byte, error) {
	var stocks jsonObjectWriter
	for _, symbol := range c.Symbols() {
		s := c.stocks[symbol]

		var company jsonObjectWriter
		company.Optional("country", s.company.Country)
		company.Optional("name", s.company.Name)
		company.Optional("address", s.company.Address)
		company.Optional("zip_code", s.company.ZipCode)
		company.Optional("nature", s.company.Nature)

		var highLow jsonObjectWriter
		for _, d := range sortedDays(s.highLow) {
			var hl jsonObjectWriter
			hl.Append("low", s.highLow[d].Low.StringFixed(2))
			hl.Append("high", s.highLow[d].High.StringFixed(2))
			highLow.Append(d.String(), &hl)
		}

		var js jsonObjectWriter
		js.Append("prices", amounts(s.prices))
		js.Append("company_info", &company)
		js.Append("high_low", &highLow)
		stocks.Append(symbol, &js)
	}

	var w jsonObjectWriter
	w.Append("stocks", &stocks)
	w.Append("exchange_rates", amounts(c.rates))
	w.Append("country_mapping", c.countries) // encoding/json sorts map keys
	return w.MarshalJSON()
}

// amounts writes a date series in chronological order with two decimals.
func amounts(series map[date.Date]decimal.Decimal) *jsonObjectWriter {
	var w jsonObjectWriter
	for _, d := range sortedDays(series) {
		w.Append(d.String(), series[d].StringFixed(2))
	}
	return &w
}

func sortedDays[V any](m map[date.Date]V) []date.Date {
	return slices.SortedFunc(maps.Keys(m), date.Compare)
}
