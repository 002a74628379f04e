package publish

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CommandPublisher hands the page to an external publish command and reads
// the page URL from its output. The command is called with --title, --id
// and --content-file, like the publish subcommand of this tool.
type CommandPublisher struct {
	Command string
	Args    []string
	Dir     string
	Timeout time.Duration
	Runner  Runner
}

// Publish runs the command. A non-zero exit, or output without a page URL,
// is a publish failure carrying the captured output.
func (c *CommandPublisher) Publish(ctx context.Context, page Page) (*Published, error) {
	contentFile := page.ContentFile
	if contentFile == "" {
		f, err := os.CreateTemp("", "privacy-content-*.txt")
		if err != nil {
			return nil, eris.Wrapf(ErrPublish, "create content file: %v", err)
		}
		defer os.Remove(f.Name()) //nolint:errcheck
		if _, err := f.WriteString(page.Content); err != nil {
			_ = f.Close()
			return nil, eris.Wrapf(ErrPublish, "write content file: %v", err)
		}
		if err := f.Close(); err != nil {
			return nil, eris.Wrapf(ErrPublish, "close content file: %v", err)
		}
		contentFile = f.Name()
	}

	title := firstNonEmpty(strings.TrimSpace(page.Title), DefaultSlug)
	args := append([]string{}, c.Args...)
	args = append(args,
		"--title", title,
		"--id", strings.TrimSpace(page.OrderID),
		"--content-file", contentFile,
	)
	if page.ContentIsHTML {
		args = append(args, "--content-is-html")
	}
	if page.Slug != "" {
		args = append(args, "--slug", page.Slug)
	}
	if page.CommitMessage != "" {
		args = append(args, "--commit-message", page.CommitMessage)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	runner := c.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	stdout, stderr, err := runner.Run(ctx, Command{Dir: c.Dir, Name: c.Command, Args: args})
	combined := strings.TrimSpace(stdout + "\n" + stderr)
	if combined != "" {
		zap.L().Debug("publish: command output", zap.String("output", combined))
	}
	if err != nil {
		return nil, eris.Wrapf(ErrPublish, "%v\n%s", err, combined)
	}

	url := ParsePageURL(combined)
	if url == "" {
		return nil, eris.Wrapf(ErrPublish, "no page url in command output:\n%s", combined)
	}
	return &Published{Slug: ResolveSlug(page), URL: url, Pushed: true}, nil
}
