package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/etnz/fa"
	"github.com/etnz/fa/date"
	"github.com/phuslu/log"
	"github.com/shopspring/decimal"
)

var _ fa.MarketDataProvider = (*Client)(nil)

// errRateLimited stops the search over endpoints. It is reported to the
// caller so that a throttled day is never mistaken for a day without quote.
var errRateLimited = errors.New("rate limited")

// chart returns the daily chart document of symbol for day, trying each endpoint in turn.
// A nil document without error means that no endpoint has data.
func (c *Client) chart(ctx context.Context, symbol string, day date.Date) (any, error) {
	var errs []error
	for _, base := range c.endpoints {
		addr := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d", base, url.PathEscape(symbol), day.Unix(), day.Unix()+86400)
		var jobj any
		err := c.jwget(ctx, addr, chartUserAgent, &jobj)
		var status *statusError
		switch {
		case errors.As(err, &status) && status.code == http.StatusNotFound:
			continue
		case errors.As(err, &status) && status.code == http.StatusTooManyRequests:
			log.Warn().Str("symbol", symbol).Str("date", day.String()).Msg("rate limited, skipping this request")
			return nil, fmt.Errorf("chart of %s on %s: %w", symbol, day, errRateLimited)
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			errs = append(errs, err)
			continue
		}
		if _, err := jget("$.chart.result[0]", jobj); err != nil {
			continue
		}
		return jobj, nil
	}
	return nil, errors.Join(errs...)
}

// quoteIndex returns the index of day in the chart timestamps.
func quoteIndex(jobj any, day date.Date) (int, bool) {
	for i, ts := range jfloats("$.chart.result[0].timestamp", jobj) {
		if ts != nil && date.FromUnix(int64(*ts)) == day {
			return i, true
		}
	}
	return 0, false
}

// Close returns the closing price of symbol on day.
//
// When the chart has no quote for day, the regular market price is used only
// if the market time falls on day.
func (c *Client) Close(ctx context.Context, symbol string, day date.Date) (decimal.Decimal, bool, error) {
	jobj, err := c.chart(ctx, symbol, day)
	if err != nil || jobj == nil {
		return decimal.Decimal{}, false, err
	}

	if i, ok := quoteIndex(jobj, day); ok {
		closes := jfloats("$.chart.result[0].indicators.quote[0].close", jobj)
		if i < len(closes) && closes[i] != nil {
			return decimal.NewFromFloat(*closes[i]).Round(2), true, nil
		}
	}

	price, ok := jfloat("$.chart.result[0].meta.regularMarketPrice", jobj)
	if !ok {
		return decimal.Decimal{}, false, nil
	}
	at, ok := jfloat("$.chart.result[0].meta.regularMarketTime", jobj)
	if !ok || date.FromUnix(int64(at)) != day {
		return decimal.Decimal{}, false, nil
	}
	return decimal.NewFromFloat(price).Round(2), true, nil
}

// HighLow returns the trading range of symbol on day.
func (c *Client) HighLow(ctx context.Context, symbol string, day date.Date) (fa.HighLow, bool, error) {
	jobj, err := c.chart(ctx, symbol, day)
	if err != nil || jobj == nil {
		return fa.HighLow{}, false, err
	}

	i, ok := quoteIndex(jobj, day)
	if !ok {
		return fa.HighLow{}, false, nil
	}
	lows := jfloats("$.chart.result[0].indicators.quote[0].low", jobj)
	highs := jfloats("$.chart.result[0].indicators.quote[0].high", jobj)
	if i >= len(lows) || i >= len(highs) || lows[i] == nil || highs[i] == nil {
		return fa.HighLow{}, false, nil
	}
	return fa.HighLow{Low: decimal.NewFromFloat(*lows[i]), High: decimal.NewFromFloat(*highs[i])}, true, nil
}
