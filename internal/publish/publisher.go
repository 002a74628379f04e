// Package publish writes rendered policy pages into a static-site tree and
// publishes them, returning the public page URL.
package publish

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/privacy-cli/internal/config"
)

// ErrPublish marks failures of the publish step. Local artifacts written
// before the failure stay valid.
var ErrPublish = eris.New("publish: failed")

// Page is the content handed to a Publisher.
type Page struct {
	// Title is the app name; it feeds the slug, the page heading stays fixed.
	Title   string
	OrderID string
	// Slug overrides the derived slug when set. It is slugified before use.
	Slug          string
	Content       string
	ContentIsHTML bool
	// ContentFile already holds Content on disk; used by CommandPublisher.
	ContentFile string
	// CommitMessage overrides the publisher's default.
	CommitMessage string
}

// Published describes a published page.
type Published struct {
	Slug string `json:"slug"`
	// Dir is the page directory, Path its index.html. Both are empty when an
	// external command did the writing.
	Dir  string `json:"dir,omitempty"`
	Path string `json:"path,omitempty"`
	URL  string `json:"url"`
	// Pushed is true once the page reached the remote.
	Pushed bool `json:"pushed"`
}

// Publisher publishes a page and returns where it can be reached.
type Publisher interface {
	Publish(ctx context.Context, page Page) (*Published, error)
}

// ResolveSlug returns the slug for page.
func ResolveSlug(page Page) string {
	if strings.TrimSpace(page.Slug) != "" {
		return Slugify(page.Slug)
	}
	return Slug(page.OrderID, page.Title)
}

// New builds the publisher named by cfg.Publisher. noPush keeps the git
// publisher from committing and pushing.
func New(cfg config.PagesConfig, runner Runner, noPush bool) (Publisher, error) {
	if runner == nil {
		runner = ExecRunner{}
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second

	switch strings.ToLower(strings.TrimSpace(cfg.Publisher)) {
	case "", "git":
		return &GitPublisher{
			RepoDir:       cfg.RepoDir,
			Remote:        cfg.Remote,
			Branch:        cfg.Branch,
			CommitMessage: cfg.CommitMessage,
			SSHCommand:    cfg.SSHCommand,
			Landing:       cfg.Landing,
			PushRetries:   cfg.PushRetries,
			Timeout:       timeout,
			NoPush:        noPush,
			Runner:        runner,
		}, nil
	case "command":
		fields := strings.Fields(cfg.Command)
		if len(fields) == 0 {
			return nil, eris.New("publish: pages.command is empty")
		}
		return &CommandPublisher{
			Command: fields[0],
			Args:    fields[1:],
			Dir:     cfg.RepoDir,
			Timeout: timeout,
			Runner:  runner,
		}, nil
	default:
		return nil, eris.Errorf("publish: unknown publisher %q", cfg.Publisher)
	}
}
