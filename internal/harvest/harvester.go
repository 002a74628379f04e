// Package harvest visits the candidate links of an order row and collects
// the contact email and company name published on them.
package harvest

import (
	"context"
	"html"

	"go.uber.org/zap"

	"github.com/sells-group/privacy-cli/internal/fetcher"
	"github.com/sells-group/privacy-cli/internal/record"
)

// Item is one fetched candidate page.
type Item struct {
	Text  string `json:"text"`
	URL   string `json:"url"`
	Email string `json:"email,omitempty"`
	// Blocked names the anti-bot page served instead of the document.
	Blocked BlockType `json:"blocked,omitempty"`
}

// Result holds what a single harvest discovered.
type Result struct {
	Items       []Item `json:"items"`
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`
}

// Options configures a Harvester.
type Options struct {
	// EmailDomain restricts matches to addresses at this domain.
	EmailDomain string
	// EarlyExit stops visiting candidates once company and email are known.
	EarlyExit bool
}

// Harvester fetches candidate pages and extracts contact details.
type Harvester struct {
	fetcher fetcher.Fetcher
	opts    Options
}

// New creates a Harvester.
func New(f fetcher.Fetcher, opts Options) *Harvester {
	if opts.EmailDomain == "" {
		opts.EmailDomain = DefaultEmailDomain
	}
	return &Harvester{fetcher: f, opts: opts}
}

// Harvest visits candidates in order. Fetch failures are logged and the
// candidate is skipped. The only error returned is cancellation of ctx.
func (h *Harvester) Harvest(ctx context.Context, candidates []record.CandidateLink) (Result, error) {
	var res Result
	visited := make(map[string]bool, len(candidates))
	log := zap.L().With(zap.String("email_domain", h.opts.EmailDomain))

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if c.URL == "" || visited[c.URL] {
			continue
		}

		resp, err := h.fetcher.Get(ctx, c.URL)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			log.Warn("harvest: skipping candidate",
				zap.String("url", c.URL),
				zap.Error(err),
			)
			continue
		}
		visited[c.URL] = true

		emails := ExtractEmails(html.UnescapeString(string(resp.Body)), h.opts.EmailDomain)
		item := Item{Text: c.Text, URL: c.URL}
		if len(emails) > 0 {
			item.Email = emails[0]
		} else if bt := DetectBlock(resp); bt != BlockNone {
			item.Blocked = bt
			log.Warn("harvest: candidate page looks blocked",
				zap.String("url", c.URL),
				zap.String("block", string(bt)),
			)
		}
		res.Items = append(res.Items, item)

		if res.CompanyName == "" {
			res.CompanyName = DeriveCompanyName(c.Text)
		}
		if res.Email == "" && item.Email != "" {
			res.Email = item.Email
		}

		log.Debug("harvest: fetched candidate",
			zap.String("url", c.URL),
			zap.Int("emails", len(emails)),
		)

		if h.opts.EarlyExit && res.CompanyName != "" && res.Email != "" {
			break
		}
	}

	SortItems(res.Items)

	log.Info("harvest: done",
		zap.Int("candidates", len(candidates)),
		zap.Int("fetched", len(res.Items)),
		zap.String("company_name", res.CompanyName),
		zap.Bool("email_found", res.Email != ""),
	)
	return res, nil
}
