// Package yahoo implements a market data provider on top of Yahoo Finance public endpoints.
package yahoo

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// DefaultEndpoints are the API hosts tried in order.
var DefaultEndpoints = []string{
	"https://query2.finance.yahoo.com",
	"https://query1.finance.yahoo.com",
}

const (
	chartUserAgent   = "Mozilla/5.0"
	sessionUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// DefaultTimeout bounds each request.
	DefaultTimeout = 10 * time.Second
	// DefaultPace is the minimum delay between two requests.
	DefaultPace = time.Second

	crumbKey = "crumb"
	crumbTTL = time.Hour
)

// Client reads prices and company profiles from Yahoo Finance.
//
// Requests are paced and sent to each endpoint in turn until one answers.
// A rate limited request is not retried: it is reported as an error.
type Client struct {
	endpoints []string
	warmup    []string // pages setting the session cookies
	crumbURL  string

	client  *http.Client
	limiter *rate.Limiter
	session *gocache.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoints replaces DefaultEndpoints.
func WithEndpoints(endpoints ...string) Option {
	return func(c *Client) { c.endpoints = endpoints }
}

// WithTimeout sets the timeout of each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// WithPace sets the minimum delay between two requests, zero disables pacing.
func WithPace(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithSession sets the pages visited to open a session, and the address
// returning the crumb required by the profile endpoint.
func WithSession(crumbURL string, warmup ...string) Option {
	return func(c *Client) {
		c.crumbURL = crumbURL
		c.warmup = warmup
	}
}

// New returns a Client with the default endpoints, timeout and pace.
func New(opts ...Option) *Client {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	c := &Client{
		endpoints: DefaultEndpoints,
		warmup:    []string{"https://fc.yahoo.com", "https://finance.yahoo.com"},
		crumbURL:  "https://query1.finance.yahoo.com/v1/test/getcrumb",
		client:    &http.Client{Jar: jar, Timeout: DefaultTimeout, Transport: &logTransport{base: http.DefaultTransport}},
		limiter:   rate.NewLimiter(rate.Every(DefaultPace), 1),
		session:   gocache.New(crumbTTL, 2*crumbTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until the next request is allowed.
func (c *Client) wait(ctx context.Context) error { return c.limiter.Wait(ctx) }
