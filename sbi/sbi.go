// Package sbi reads the USD to INR reference rates published by the State Bank of India.
//
// The rates come from a community maintained CSV mirror, one line per
// publication:
//
//	DATE,PDF FILE,TT BUY,TT SELL,BILL BUY,BILL SELL,...
//	2023-01-13 09:00,https://...,81.02,82.75,...
//
// The TT SELL column is the rate used for foreign asset reporting.
package sbi

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/etnz/fa"
	"github.com/etnz/fa/date"
	gocache "github.com/patrickmn/go-cache"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
)

// DefaultURL is the address of the USD reference rates.
const DefaultURL = "https://raw.githubusercontent.com/sahilgupta/sbi-fx-ratekeeper/main/csv_files/SBI_REFERENCE_RATES_USD.csv"

// DefaultTimeout bounds the download of the rate table.
const DefaultTimeout = 30 * time.Second

// DefaultTTL is how long a downloaded table is reused.
const DefaultTTL = time.Hour

// walkBack is the number of days before the requested one searched for a rate.
const walkBack = 10

// ttSell is the index of the TT SELL column.
const ttSell = 3

var _ fa.RateProvider = (*Client)(nil)

// Table holds published rates.
type Table struct {
	rates  map[date.Date]decimal.Decimal
	latest decimal.Decimal // rate of the last line of the file
}

// Lookup returns the rate of day, else the closest rate published in the ten
// previous days, else the latest rate of the table.
func (t *Table) Lookup(day date.Date) (decimal.Decimal, bool) {
	for back := 0; back <= walkBack; back++ {
		if r, ok := t.rates[day.Add(-back)]; ok {
			return r, true
		}
	}
	if t.latest.IsPositive() {
		log.Warn().Str("date", day.String()).Str("rate", t.latest.String()).Msg("no rate near the requested date, using the most recent one")
		return t.latest, true
	}
	return decimal.Decimal{}, false
}

// Len returns the number of days with a rate.
func (t *Table) Len() int { return len(t.rates) }

// ParseTable reads the rate CSV. Lines without a positive TT SELL rate are ignored.
func ParseTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	t := &Table{rates: make(map[date.Date]decimal.Decimal)}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse rates: %w", err)
		}
		if len(record) <= ttSell || strings.HasPrefix(record[0], "DATE") {
			continue
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(record[ttSell]))
		if err != nil || !rate.IsPositive() {
			continue
		}
		stamp := strings.Fields(record[0])
		if len(stamp) == 0 {
			continue
		}
		day, err := date.Parse(stamp[0])
		if err != nil {
			continue
		}
		// first publication of the day wins
		if _, ok := t.rates[day]; !ok {
			t.rates[day] = rate
		}
		t.latest = rate
	}
	return t, nil
}

// Client is a fa.RateProvider downloading the rate table once and keeping it in memory.
type Client struct {
	URL    string
	client *http.Client
	tables *gocache.Cache
}

// New returns a client of the rates at url, DefaultURL if empty. The
// downloaded table is reused for ttl.
func New(url string, timeout, ttl time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		URL:    url,
		client: &http.Client{Timeout: timeout},
		tables: gocache.New(ttl, 2*ttl),
	}
}

// Table returns the rate table, downloading it when needed.
func (c *Client) Table(ctx context.Context) (*Table, error) {
	if t, ok := c.tables.Get(c.URL); ok {
		return t.(*Table), nil
	}

	log.Info().Str("url", c.URL).Msg("downloading SBI reference rates")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download rates: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download rates: received status %s", resp.Status)
	}

	t, err := ParseTable(resp.Body)
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, errors.New("no rate in the downloaded table")
	}
	c.tables.SetDefault(c.URL, t)
	return t, nil
}

// Rate returns the TT SELL rate of day, see Table.Lookup.
func (c *Client) Rate(ctx context.Context, day date.Date) (decimal.Decimal, error) {
	t, err := c.Table(ctx)
	if err != nil {
		return decimal.Decimal{}, err
	}
	r, ok := t.Lookup(day)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("no rate for %s", day)
	}
	return r, nil
}
