package publish

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	remotePattern  = regexp.MustCompile(`github\.com[:/](?P<slug>[^/]+/[^/]+?)(?:\.git)?/?$`)
	pageURLPattern = regexp.MustCompile(`(https?://[^\s]+/pages/[^\s]+/)`)
)

// RepoSlugFromRemote extracts owner/repo from an ssh or https GitHub remote.
func RepoSlugFromRemote(remoteURL string) (string, error) {
	m := remotePattern.FindStringSubmatch(strings.TrimSpace(remoteURL))
	if m == nil {
		return "", eris.Errorf("publish: unsupported remote url %q", remoteURL)
	}
	return m[remotePattern.SubexpIndex("slug")], nil
}

// PagesBaseURL returns the project site root for owner/repo, with a
// trailing slash.
func PagesBaseURL(repoSlug string) string {
	owner, repo, _ := strings.Cut(repoSlug, "/")
	return "https://" + strings.ToLower(owner) + ".github.io/" + repo + "/"
}

// PageURL joins a base URL and slug. An empty base gives the relative path.
func PageURL(baseURL, slug string) string {
	return baseURL + PagesDir + "/" + slug + "/"
}

// ParsePageURL returns the first page URL in command output, or "".
func ParsePageURL(output string) string {
	return pageURLPattern.FindString(output)
}
