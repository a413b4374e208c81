package fa

import (
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/phuslu/log"
)

// Backup copies the cache file to "<file>.backup_YYYYMMDD_HHMMSS" next to it and
// returns the backup path. A cache that was never saved has nothing to back up
// and returns "".
func (c *Cache) Backup(now time.Time) (string, error) {
	if c.path == "" {
		return "", nil
	}
	src, err := os.Open(c.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("cannot open cache for backup: %w", err)
	}
	defer src.Close()

	backup := c.path + ".backup_" + now.Format("20060102_150405")
	dst, err := os.Create(backup)
	if err != nil {
		return "", fmt.Errorf("cannot create backup %q: %w", backup, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("cannot write backup %q: %w", backup, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("cannot write backup %q: %w", backup, err)
	}
	log.Info().Str("backup", backup).Msg("cache backup created")
	return backup, nil
}

// ClearAll resets the cache to an empty structure with the default country mapping.
func (c *Cache) ClearAll() error {
	path := c.path
	*c = *NewCache(path)
	return c.Save()
}

// ClearStocks removes every symbol except the ones in keep. Exchange rates are kept.
func (c *Cache) ClearStocks(keep ...string) error {
	for symbol := range c.stocks {
		if !slices.Contains(keep, symbol) {
			delete(c.stocks, symbol)
		}
	}
	return c.Save()
}

// ClearRates removes every exchange rate. Stocks are kept.
func (c *Cache) ClearRates() error {
	clear(c.rates)
	return c.Save()
}

// ClearSymbol removes everything known about symbol.
func (c *Cache) ClearSymbol(symbol string) error {
	if _, ok := c.stocks[symbol]; !ok {
		return fmt.Errorf("symbol %q: %w in cache (available: %v)", symbol, ErrNotFound, c.Symbols())
	}
	delete(c.stocks, symbol)
	return c.Save()
}

// SymbolStats counts what the cache holds for one symbol.
type SymbolStats struct {
	Symbol     string
	Prices     int
	HighLows   int
	HasCompany bool
}

// Stats summarizes the cache content, symbols in alphabetical order.
func (c *Cache) Stats() (symbols []SymbolStats, rates int) {
	for _, symbol := range c.Symbols() {
		s := c.stocks[symbol]
		symbols = append(symbols, SymbolStats{
			Symbol:     symbol,
			Prices:     len(s.prices),
			HighLows:   len(s.highLow),
			HasCompany: s.company.Name != "",
		})
	}
	return symbols, len(c.rates)
}
