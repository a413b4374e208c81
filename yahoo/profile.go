package yahoo

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/etnz/fa"
	"github.com/phuslu/log"
)

// crumb returns the session crumb, opening a session when needed.
func (c *Client) crumb(ctx context.Context) (string, error) {
	if v, ok := c.session.Get(crumbKey); ok {
		return v.(string), nil
	}

	for _, page := range c.warmup {
		// only the cookies matter
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, page, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("User-Agent", sessionUserAgent)
		if resp, err := c.client.Do(req); err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}

	body, err := c.get(ctx, c.crumbURL, sessionUserAgent)
	if err != nil {
		return "", fmt.Errorf("cannot get a session crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if crumb == "" {
		return "", errors.New("empty session crumb")
	}
	c.session.SetDefault(crumbKey, crumb)
	log.Debug().Msg("yahoo session opened")
	return crumb, nil
}

// Profile returns the issuer description of symbol from its asset profile.
func (c *Client) Profile(ctx context.Context, symbol string) (fa.CompanyInfo, bool, error) {
	crumb, err := c.crumb(ctx)
	if err != nil {
		return fa.CompanyInfo{}, false, err
	}

	var errs []error
	for _, base := range c.endpoints {
		addr := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile&crumb=%s", base, url.PathEscape(symbol), url.QueryEscape(crumb))
		var jobj any
		if err := c.jwget(ctx, addr, sessionUserAgent, &jobj); err != nil {
			var status *statusError
			if errors.As(err, &status) && status.code == http.StatusUnauthorized {
				// the crumb expired
				c.session.Delete(crumbKey)
			}
			errs = append(errs, err)
			continue
		}
		profile, err := jget("$.quoteSummary.result[0].assetProfile", jobj)
		if err != nil {
			return fa.CompanyInfo{}, false, nil
		}
		return companyInfo(symbol, profile), true, nil
	}
	return fa.CompanyInfo{}, false, errors.Join(errs...)
}

// companyInfo maps an asset profile to a CompanyInfo.
func companyInfo(symbol string, profile any) fa.CompanyInfo {
	info := fa.CompanyInfo{
		Country: cmp.Or(jstring("$.country", profile), "United States"),
		Name:    cmp.Or(jstring("$.longName", profile), jstring("$.shortName", profile), symbol+" Inc."),
		ZipCode: cmp.Or(jstring("$.zip", profile), "N/A"),
		Nature:  cmp.Or(jstring("$.sector", profile), "Public Limited Company"),
	}
	var address []string
	for _, key := range []string{"address1", "city", "state"} {
		if part := jstring("$."+key, profile); part != "" {
			address = append(address, part)
		}
	}
	info.Address = cmp.Or(strings.Join(address, " "), "N/A")
	return info
}
