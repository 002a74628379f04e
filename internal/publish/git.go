package publish

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/privacy-cli/internal/resilience"
)

// DefaultCommitMessage is used when neither the page nor the publisher sets one.
const DefaultCommitMessage = "Update privacy page"

// GitPublisher writes pages into a git working tree and pushes them to a
// GitHub Pages remote.
type GitPublisher struct {
	RepoDir       string
	Remote        string
	Branch        string
	CommitMessage string
	// SSHCommand is exported as GIT_SSH_COMMAND for git calls.
	SSHCommand string
	// Landing rewrites the root index.html to redirect to the newest page.
	Landing     bool
	PushRetries int
	// Timeout bounds each git command.
	Timeout time.Duration
	// NoPush writes files only.
	NoPush bool
	Runner Runner
}

// Publish writes the page, updates the landing redirect and pushes.
func (g *GitPublisher) Publish(ctx context.Context, page Page) (*Published, error) {
	repoDir := g.RepoDir
	if repoDir == "" {
		repoDir = "."
	}
	slug := ResolveSlug(page)
	log := zap.L().With(zap.String("slug", slug), zap.String("repo_dir", repoDir))

	dir, path, err := WritePage(repoDir, slug, page)
	if err != nil {
		return nil, eris.Wrapf(ErrPublish, "%v", err)
	}
	log.Info("publish: wrote page", zap.String("path", path))

	base := g.baseURL(ctx, repoDir)
	pub := &Published{Slug: slug, Dir: dir, Path: path, URL: PageURL(base, slug)}

	if g.Landing && base != "" {
		if err := WriteLanding(repoDir, pub.URL); err != nil {
			return pub, eris.Wrapf(ErrPublish, "%v", err)
		}
	}

	if g.NoPush {
		log.Info("publish: push disabled, files written only", zap.String("url", pub.URL))
		return pub, nil
	}

	msg := firstNonEmpty(page.CommitMessage, g.CommitMessage, DefaultCommitMessage)
	if err := g.commitAndPush(ctx, repoDir, msg); err != nil {
		return pub, err
	}
	pub.Pushed = true
	log.Info("publish: pushed", zap.String("url", pub.URL))
	return pub, nil
}

// baseURL derives the Pages site root from the remote, or "" when the
// remote is missing or not a GitHub URL.
func (g *GitPublisher) baseURL(ctx context.Context, repoDir string) string {
	remote := firstNonEmpty(g.Remote, "origin")
	out, _, err := g.git(ctx, repoDir, "remote", "get-url", remote)
	if err != nil {
		zap.L().Debug("publish: no git remote, using relative url", zap.String("remote", remote), zap.Error(err))
		return ""
	}
	repoSlug, err := RepoSlugFromRemote(out)
	if err != nil {
		zap.L().Warn("publish: remote is not a GitHub url, using relative url", zap.Error(err))
		return ""
	}
	return PagesBaseURL(repoSlug)
}

func (g *GitPublisher) commitAndPush(ctx context.Context, repoDir, msg string) error {
	paths := []string{PagesDir}
	if _, err := os.Stat(filepath.Join(repoDir, "index.html")); err == nil {
		paths = append(paths, "index.html")
	} else if !errors.Is(err, fs.ErrNotExist) {
		return eris.Wrapf(ErrPublish, "stat landing: %v", err)
	}

	if _, _, err := g.git(ctx, repoDir, append([]string{"add"}, paths...)...); err != nil {
		return eris.Wrapf(ErrPublish, "%v", err)
	}

	status, _, err := g.git(ctx, repoDir, "status", "--porcelain")
	if err != nil {
		return eris.Wrapf(ErrPublish, "%v", err)
	}
	if strings.TrimSpace(status) == "" {
		// An earlier run may have committed without pushing.
		zap.L().Info("publish: no changes to commit")
	} else if _, _, err := g.git(ctx, repoDir, "commit", "-m", msg); err != nil {
		return eris.Wrapf(ErrPublish, "%v", err)
	}

	branch := g.Branch
	if branch == "" {
		out, _, err := g.git(ctx, repoDir, "branch", "--show-current")
		if err == nil {
			branch = strings.TrimSpace(out)
		}
		branch = firstNonEmpty(branch, "main")
	}

	remote := firstNonEmpty(g.Remote, "origin")
	cfg := resilience.DefaultRetryConfig().WithAttempts(g.PushRetries)
	cfg.OnRetry = resilience.RetryLogger("pages", "git_push")
	err = resilience.Do(ctx, cfg, func(ctx context.Context) error {
		_, _, err := g.git(ctx, repoDir, "push", remote, branch)
		return err
	})
	if err != nil {
		return eris.Wrapf(ErrPublish, "%v", err)
	}
	return nil
}

func (g *GitPublisher) git(ctx context.Context, dir string, args ...string) (string, string, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	var env []string
	if g.SSHCommand != "" {
		env = append(env, "GIT_SSH_COMMAND="+g.SSHCommand)
	}
	runner := g.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	stdout, stderr, err := runner.Run(ctx, Command{Dir: dir, Name: "git", Args: args, Env: env})
	return strings.TrimSpace(stdout), stderr, err
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
