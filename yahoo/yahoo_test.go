package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/etnz/fa"
	"github.com/etnz/fa/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2023-01-13 14:30 UTC, a market open.
const jan13 = 1673620200

func chartJSON(timestamp int64, close string, marketTime int64) string {
	return fmt.Sprintf(`{"chart":{"result":[{
		"meta":{"currency":"USD","symbol":"ACME","regularMarketPrice":142.5,"regularMarketTime":%d},
		"timestamp":[%d],
		"indicators":{"quote":[{"open":[100.1],"high":[102.257],"low":[98.5],"close":[%s],"volume":[1000]}]}
	}],"error":null}}`, marketTime, timestamp, close)
}

// newTestServer serves the chart document on /b and answers status on /a.
func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		if strings.HasPrefix(r.URL.Path, "/a/") {
			w.WriteHeader(status)
			return
		}
		assert.Equal(t, "/b/v8/finance/chart/ACME", r.URL.Path)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_Close(t *testing.T) {
	day := date.MustParse("2023-01-13")
	testCases := []struct {
		name   string
		status int // of the first endpoint
		body   string
		want   string // empty when not found
		calls  int32
		errIs  error
	}{
		{"second endpoint after 404", http.StatusNotFound, chartJSON(jan13, "100.456", jan13), "100.46", 2, nil},
		{"second endpoint after server error", http.StatusBadGateway, chartJSON(jan13, "100.456", jan13), "100.46", 2, nil},
		{"rate limited", http.StatusTooManyRequests, chartJSON(jan13, "100.456", jan13), "", 1, errRateLimited},
		{"null close, market time on the day", http.StatusNotFound, chartJSON(jan13, "null", jan13), "142.5", 2, nil},
		{"null close, market time on another day", http.StatusNotFound, chartJSON(jan13, "null", jan13+7*86400), "", 2, nil},
		{"no result", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found"}}}`, "", 2, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv, calls := newTestServer(t, tc.status, tc.body)
			c := New(WithEndpoints(srv.URL+"/a", srv.URL+"/b"), WithPace(0))

			price, ok, err := c.Close(context.Background(), "ACME", day)
			assert.Equal(t, tc.calls, calls.Load())
			if tc.errIs != nil {
				assert.ErrorIs(t, err, tc.errIs)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			if tc.want == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.True(t, decimal.RequireFromString(tc.want).Equal(price), "price = %v, want %v", price, tc.want)
		})
	}
}

func TestClient_Close_OtherDay(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusNotFound, chartJSON(jan13, "100.456", jan13))
	c := New(WithEndpoints(srv.URL+"/b"), WithPace(0))

	// the chart only has Jan 13th
	_, ok, err := c.Close(context.Background(), "ACME", date.MustParse("2023-01-12"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_HighLow(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusNotFound, chartJSON(jan13, "100.456", jan13))
	c := New(WithEndpoints(srv.URL+"/b"), WithPace(0))

	hl, ok, err := c.HighLow(context.Background(), "ACME", date.MustParse("2023-01-13"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "98.5", hl.Low.String())
	assert.Equal(t, "102.257", hl.High.String())
}

func TestClient_Profile(t *testing.T) {
	var crumbs atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/warmup":
			http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session", Path: "/"})
		case "/getcrumb":
			crumbs.Add(1)
			if _, err := r.Cookie("A3"); err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			fmt.Fprint(w, "abc/def")
		case "/api/v10/finance/quoteSummary/ACME":
			assert.Equal(t, "abc/def", r.URL.Query().Get("crumb"))
			assert.Equal(t, "assetProfile", r.URL.Query().Get("modules"))
			fmt.Fprint(w, `{"quoteSummary":{"result":[{"assetProfile":{
				"address1":"1 Road Runner Way","city":"Phoenix","state":"AZ","zip":"85001",
				"country":"United States","sector":"Industrials","longBusinessSummary":"Anvils."
			}}],"error":null}}`)
		case "/api/v10/finance/quoteSummary/EMPTY":
			fmt.Fprint(w, `{"quoteSummary":{"result":[{"assetProfile":{"shortName":"Empty"}}],"error":null}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(WithEndpoints(srv.URL+"/api"), WithPace(0), WithSession(srv.URL+"/getcrumb", srv.URL+"/warmup"))
	ctx := context.Background()

	info, ok, err := c.Profile(ctx, "ACME")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fa.CompanyInfo{
		Country: "United States",
		Name:    "ACME Inc.",
		Address: "1 Road Runner Way Phoenix AZ",
		ZipCode: "85001",
		Nature:  "Industrials",
	}, info)

	info, ok, err = c.Profile(ctx, "EMPTY")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fa.CompanyInfo{Country: "United States", Name: "Empty", Address: "N/A", ZipCode: "N/A", Nature: "Public Limited Company"}, info)

	// the crumb is reused
	assert.Equal(t, int32(1), crumbs.Load())
}

func TestClient_ProfileWithoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(WithEndpoints(srv.URL), WithPace(0), WithSession(srv.URL+"/getcrumb"))
	_, ok, err := c.Profile(context.Background(), "ACME")
	assert.Error(t, err)
	assert.False(t, ok)
}
