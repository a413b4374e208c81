package yahoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/PaesslerAG/jsonpath"
	"github.com/phuslu/log"
)

// logTransport logs every request at debug level.
type logTransport struct {
	base http.RoundTripper
}

func (t *logTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		log.Debug().Err(err).Str("method", req.Method).Str("host", req.URL.Host).Str("path", req.URL.Path).Msg("request failed")
		return nil, err
	}
	log.Debug().Msgf("%v %v%v %v", req.Method, req.URL.Host, req.URL.Path, resp.Status)
	return resp, nil
}

// statusError is returned by jwget for non 200 responses.
type statusError struct {
	host, path string
	code       int
	status     string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("cannot http GET %v%v: %v", e.host, e.path, e.status)
}

// jwget performs a paced GET request to addr and unmarshals the json response into data.
func (c *Client) jwget(ctx context.Context, addr, userAgent string, data any) error {
	body, err := c.get(ctx, addr, userAgent)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, data)
}

// get performs a paced GET request and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, addr, userAgent string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &statusError{host: resp.Request.URL.Host, path: resp.Request.URL.Path, code: resp.StatusCode, status: resp.Status}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// jget evaluates a json path on a decoded json document.
func jget(path string, jobj any) (any, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", path, err)
	}
	// because jsonpath is never clear about whether it returns a list of 1 answer, or a single answer:
	// keep the first one if any
	if jlist, ok := jval.([]any); ok && len(jlist) == 1 {
		if _, nested := jlist[0].([]any); nested {
			jval = jlist[0]
		}
	}
	return jval, nil
}

// jstring returns the string at path, or "".
func jstring(path string, jobj any) string {
	jval, err := jget(path, jobj)
	if err != nil {
		return ""
	}
	s, _ := jval.(string)
	return s
}

// jfloat returns the number at path.
func jfloat(path string, jobj any) (float64, bool) {
	jval, err := jget(path, jobj)
	if err != nil {
		return 0, false
	}
	f, ok := jval.(float64)
	return f, ok
}

// jfloats returns the list of numbers at path, nil standing for json null.
func jfloats(path string, jobj any) []*float64 {
	jval, err := jget(path, jobj)
	if err != nil {
		return nil
	}
	list, _ := jval.([]any)
	values := make([]*float64, len(list))
	for i, v := range list {
		if f, ok := v.(float64); ok {
			values[i] = &f
		}
	}
	return values
}
