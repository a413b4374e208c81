package fa

import (
	"errors"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/etnz/fa/date"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
)

// DefaultCountryCode is the schedule code used for countries missing from the mapping (United States).
const DefaultCountryCode = 2

// defaultCountries returns the country code mapping of a fresh cache.
func defaultCountries() map[string]int {
	return map[string]int{
		"United States":  2,
		"United Kingdom": 3,
		"Canada":         4,
		"Germany":        5,
		"France":         6,
		"Japan":          7,
		"Australia":      8,
		"Netherlands":    9,
		"Switzerland":    10,
		"Singapore":      11,
	}
}

// stock holds everything known about one symbol.
type stock struct {
	prices  map[date.Date]decimal.Decimal
	company CompanyInfo
	highLow map[date.Date]HighLow
}

func newStock() *stock {
	return &stock{
		prices:  make(map[date.Date]decimal.Decimal),
		highLow: make(map[date.Date]HighLow),
	}
}

// Cache is the persistent store of market facts.
//
// A Cache is bound to a file: every Put method saves the whole snapshot
// immediately so an interrupted run never loses what it already fetched.
// A Cache is owned by a single process and is not safe for concurrent use.
type Cache struct {
	path      string // empty for an in-memory cache
	stocks    map[string]*stock
	rates     map[date.Date]decimal.Decimal
	countries map[string]int
}

// NewCache returns an empty cache that saves to path. An empty path never saves.
func NewCache(path string) *Cache {
	return &Cache{
		path:      path,
		stocks:    make(map[string]*stock),
		rates:     make(map[date.Date]decimal.Decimal),
		countries: defaultCountries(),
	}
}

// LoadCache reads the cache file at path.
//
// A missing or unreadable file is not an error: the run starts from an empty
// cache (with the default country mapping) that will be saved to path.
func LoadCache(path string) *Cache {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().Str("path", path).Msg("market data cache does not exist, starting empty")
		return NewCache(path)
	}
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("cannot open market data cache, starting empty")
		return NewCache(path)
	}
	defer f.Close()

	c, err := DecodeCache(f)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("cannot parse market data cache, starting empty")
		return NewCache(path)
	}
	c.path = path
	return c
}

// Path returns the file the cache is saved to.
func (c *Cache) Path() string { return c.path }

// Save writes the whole cache to its file in canonical order.
//
// The file is written next to the target and renamed over it.
func (c *Cache) Save() error {
	if c.path == "" {
		return nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), "."+filepath.Base(c.path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if err := EncodeCache(tmp, c); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path)
}

// checkpoint saves the cache after a write. Failures are logged and ignored:
// the values already computed in memory remain valid.
func (c *Cache) checkpoint() {
	if err := c.Save(); err != nil {
		log.Debug().Err(err).Str("path", c.path).Msg("cache write err (ignored)")
	}
}

func (c *Cache) stock(symbol string, create bool) *stock {
	s, ok := c.stocks[symbol]
	if !ok && create {
		s = newStock()
		c.stocks[symbol] = s
	}
	return s
}

// Symbols returns the cached symbols in alphabetical order.
func (c *Cache) Symbols() []string { return slices.Sorted(maps.Keys(c.stocks)) }

// Price returns the cached closing price of symbol on day.
func (c *Cache) Price(symbol string, day date.Date) (decimal.Decimal, bool) {
	s := c.stock(symbol, false)
	if s == nil {
		return decimal.Decimal{}, false
	}
	p, ok := s.prices[day]
	return p, ok
}

// PutPrice records the closing price of symbol on day, rounded to the cent, and saves.
func (c *Cache) PutPrice(symbol string, day date.Date, price decimal.Decimal) {
	c.stock(symbol, true).prices[day] = price.Round(2)
	c.checkpoint()
}

// PricedDays returns the days of r with a cached price for symbol, in chronological order.
func (c *Cache) PricedDays(symbol string, r date.Range) []date.Date {
	s := c.stock(symbol, false)
	if s == nil {
		return nil
	}
	days := make([]date.Date, 0, len(s.prices))
	for d := range s.prices {
		if r.Contains(d) {
			days = append(days, d)
		}
	}
	slices.SortFunc(days, date.Compare)
	return days
}

// CachedWeekdays counts the Monday to Friday days of r with a cached price for symbol.
func (c *Cache) CachedWeekdays(symbol string, r date.Range) (n int) {
	s := c.stock(symbol, false)
	if s == nil {
		return 0
	}
	for d := range r.Weekdays() {
		if _, ok := s.prices[d]; ok {
			n++
		}
	}
	return n
}

// Rate returns the cached USD to INR rate of day.
func (c *Cache) Rate(day date.Date) (decimal.Decimal, bool) {
	r, ok := c.rates[day]
	return r, ok
}

// PutRate records the rate of day, rounded to the paisa, and saves.
func (c *Cache) PutRate(day date.Date, rate decimal.Decimal) {
	c.rates[day] = rate.Round(2)
	c.checkpoint()
}

// HighLow returns the cached trading range of symbol on day.
func (c *Cache) HighLow(symbol string, day date.Date) (HighLow, bool) {
	s := c.stock(symbol, false)
	if s == nil {
		return HighLow{}, false
	}
	hl, ok := s.highLow[day]
	return hl, ok
}

// PutHighLow records the trading range of symbol on day and saves.
func (c *Cache) PutHighLow(symbol string, day date.Date, hl HighLow) {
	c.stock(symbol, true).highLow[day] = HighLow{Low: hl.Low.Round(2), High: hl.High.Round(2)}
	c.checkpoint()
}

// Company returns the cached issuer of symbol.
//
// An entry without a name does not count. Missing fields of a named entry are
// filled with defaults.
func (c *Cache) Company(symbol string) (CompanyInfo, bool) {
	s := c.stock(symbol, false)
	if s == nil || s.company.Name == "" {
		return CompanyInfo{}, false
	}
	info := s.company
	if info.Country == "" {
		info.Country = "United States"
	}
	if info.Address == "" {
		info.Address = "N/A"
	}
	if info.ZipCode == "" {
		info.ZipCode = "N/A"
	}
	if info.Nature == "" {
		info.Nature = "Public Company"
	}
	return info, true
}

// PutCompany records the issuer of symbol and saves.
func (c *Cache) PutCompany(symbol string, info CompanyInfo) {
	c.stock(symbol, true).company = info
	c.checkpoint()
}

// CountryCode returns the schedule code of country, DefaultCountryCode when unmapped.
func (c *Cache) CountryCode(country string) int {
	if code, ok := c.countries[country]; ok {
		return code
	}
	return DefaultCountryCode
}
