package publish

import (
	"bytes"
	"html"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

// PagesDir is the directory under the repository root that holds the pages.
const PagesDir = "pages"

var pageShell = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width,initial-scale=1">
  <title>Privacy Policy</title>
  <style>
    body{font-family:system-ui,-apple-system,Segoe UI,Roboto,"Helvetica Neue",Arial;background:#f7f7fb;margin:0;padding:24px}
    .container{max-width:860px;margin:28px auto;background:#fff;border-radius:10px;padding:28px;box-shadow:0 6px 22px rgba(20,20,30,0.06)}
    h1{margin:0 0 18px;font-size:2rem;font-weight:700;text-align:center}
    .content{line-height:1.7;color:#222;white-space:normal}
  </style>
</head>
<body>
  <main class="container">
    <h1>Privacy Policy</h1>
    <div class="content">
{{.}}
    </div>
  </main>
</body>
</html>
`))

var landingShell = template.Must(template.New("landing").Parse(`<html><head><meta charset="utf-8"><meta http-equiv="refresh" content="0; url={{.}}"></head>
<body>Redirecting to <a href="{{.}}">{{.}}</a>...</body></html>
`))

var (
	fullDocument  = regexp.MustCompile(`(?is)^\s*(?:<!doctype\s+html|<html[\s>])`)
	leadingHeader = regexp.MustCompile(`(?is)^privacy\s*policy[ \t]*\r?\n\s*\r?\n`)
)

// RenderPage returns the index.html for page. Full HTML documents are used
// as-is, HTML fragments are placed in the page shell, and plain text is
// escaped into the shell with its line breaks kept.
func RenderPage(page Page) (string, error) {
	if page.ContentIsHTML && fullDocument.MatchString(page.Content) {
		return page.Content, nil
	}

	var content template.HTML
	if page.ContentIsHTML {
		content = template.HTML(page.Content) //nolint:gosec
	} else {
		content = template.HTML(textToHTML(stripLeadingHeader(page.Content))) //nolint:gosec
	}

	var buf bytes.Buffer
	if err := pageShell.Execute(&buf, content); err != nil {
		return "", eris.Wrap(err, "publish: render page shell")
	}
	return buf.String(), nil
}

// stripLeadingHeader drops a leading "Privacy Policy" line followed by a
// blank line, since the shell already carries that heading.
func stripLeadingHeader(text string) string {
	t := strings.TrimLeft(text, "\ufeff\n\r\t ")
	return leadingHeader.ReplaceAllString(t, "")
}

// textToHTML escapes plain text, keeping line breaks and double spaces.
func textToHTML(text string) string {
	safe := html.EscapeString(text)
	safe = strings.ReplaceAll(safe, "  ", "&nbsp;&nbsp;")
	safe = strings.ReplaceAll(safe, "\r\n", "\n")
	safe = strings.ReplaceAll(safe, "\r", "\n")
	return strings.ReplaceAll(safe, "\n", "<br>\n")
}

// RenderLanding returns a root index.html redirecting to url.
func RenderLanding(url string) (string, error) {
	var buf bytes.Buffer
	if err := landingShell.Execute(&buf, url); err != nil {
		return "", eris.Wrap(err, "publish: render landing page")
	}
	return buf.String(), nil
}

// WritePage writes <repoDir>/pages/<slug>/index.html and returns the
// directory and file paths.
func WritePage(repoDir, slug string, page Page) (dir, path string, err error) {
	body, err := RenderPage(page)
	if err != nil {
		return "", "", err
	}
	dir = filepath.Join(repoDir, PagesDir, slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", eris.Wrapf(err, "publish: create page dir %s", dir)
	}
	path = filepath.Join(dir, "index.html")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", "", eris.Wrapf(err, "publish: write page %s", path)
	}
	return dir, path, nil
}

// WriteLanding rewrites <repoDir>/index.html as a redirect to url.
func WriteLanding(repoDir, url string) error {
	body, err := RenderLanding(url)
	if err != nil {
		return err
	}
	path := filepath.Join(repoDir, "index.html")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return eris.Wrapf(err, "publish: write landing %s", path)
	}
	return nil
}
