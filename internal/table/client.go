// Package table loads the order table from the table API, or from a saved
// API response, and decodes it into a record tree.
package table

import (
	"context"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/privacy-cli/internal/config"
	"github.com/sells-group/privacy-cli/internal/fetcher"
	"github.com/sells-group/privacy-cli/internal/record"
)

// ErrNoSource is returned when neither a records URL nor a records file is set.
var ErrNoSource = eris.New("table: no records url or records file configured")

// Client fetches and decodes the order table.
type Client struct {
	fetcher     fetcher.Fetcher
	recordsURL  string
	recordsFile string
}

// NewClient creates a Client. f may be nil when only a records file is used.
func NewClient(cfg config.TableConfig, f fetcher.Fetcher) *Client {
	return &Client{
		fetcher:     f,
		recordsURL:  strings.TrimSpace(cfg.RecordsURL),
		recordsFile: strings.TrimSpace(cfg.RecordsFile),
	}
}

// Load returns the decoded record tree. A records file takes precedence over
// the records URL.
func (c *Client) Load(ctx context.Context) (*record.Node, error) {
	body, err := c.raw(ctx)
	if err != nil {
		return nil, err
	}
	tree, err := record.DecodeResponse(body)
	if err != nil {
		return nil, eris.Wrap(err, "table: decode records")
	}
	return tree, nil
}

func (c *Client) raw(ctx context.Context) ([]byte, error) {
	if c.recordsFile != "" {
		body, err := os.ReadFile(c.recordsFile)
		if err != nil {
			return nil, eris.Wrapf(err, "table: read records file %s", c.recordsFile)
		}
		zap.L().Debug("table: loaded saved response",
			zap.String("path", c.recordsFile),
			zap.Int("bytes", len(body)),
		)
		return body, nil
	}

	if c.recordsURL == "" {
		return nil, ErrNoSource
	}
	if c.fetcher == nil {
		return nil, eris.New("table: no fetcher configured")
	}

	target, err := ResetOffset(c.recordsURL)
	if err != nil {
		return nil, err
	}

	resp, err := c.fetcher.Get(ctx, target)
	if err != nil {
		return nil, eris.Wrap(err, "table: fetch records")
	}
	zap.L().Debug("table: fetched records",
		zap.String("host", hostOf(target)),
		zap.Int("bytes", len(resp.Body)),
	)
	return resp.Body, nil
}

// ResetOffset rewrites the offset query parameter of a records URL to 0 so
// the first page is always requested. Other parameters are kept.
func ResetOffset(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", eris.Wrapf(err, "table: parse records url")
	}
	if u.Scheme == "" || u.Host == "" {
		return "", eris.Errorf("table: records url %q is not absolute", rawURL)
	}
	q := u.Query()
	if q.Has("offset") {
		q.Set("offset", "0")
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Cookie returns the session cookie, reading it from CookieFile when the
// inline value is empty.
func Cookie(cfg config.TableConfig) (string, error) {
	if c := strings.TrimSpace(cfg.Cookie); c != "" {
		return c, nil
	}
	if cfg.CookieFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(cfg.CookieFile)
	if err != nil {
		return "", eris.Wrapf(err, "table: read cookie file %s", cfg.CookieFile)
	}
	return strings.TrimSpace(string(data)), nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// CookieHosts returns the host names that may receive the session cookie:
// the records URL host followed by cfg.CookieHosts, lowercased and without
// duplicates.
func CookieHosts(cfg config.TableConfig) []string {
	var hosts []string
	seen := make(map[string]bool)
	add := func(h string) {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" || seen[h] {
			return
		}
		seen[h] = true
		hosts = append(hosts, h)
	}
	if u, err := url.Parse(strings.TrimSpace(cfg.RecordsURL)); err == nil {
		add(u.Hostname())
	}
	for _, h := range cfg.CookieHosts {
		add(h)
	}
	return hosts
}
