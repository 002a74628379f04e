package render

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ContentRootID is the element whose children make up the policy text.
const ContentRootID = "privacy_simple_content"

var (
	blankRuns = regexp.MustCompile(`\n{3,}`)
	brTag     = regexp.MustCompile(`(?i)<\s*br\s*/?\s*>`)
	anyTag    = regexp.MustCompile(`<[^>]+>`)
)

var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Title:    true,
}

var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Main: true, atom.Aside: true,
	atom.Blockquote: true, atom.Pre: true, atom.Table: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Dl: true, atom.Dt: true, atom.Dd: true, atom.Hr: true,
}

// ToPlainText converts an HTML document or fragment to text suitable for
// pasting into a form. Paragraphs and headings are separated by blank lines,
// list items become "- item" or "1. item" with nested lists indented two
// spaces, and links become "text (url)".
func ToPlainText(src string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", err
	}

	root := doc.Find("#" + ContentRootID).First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		root = doc.Selection
	}

	w := &textWriter{}
	for _, n := range root.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.node(c, 0)
		}
	}
	w.flush(0)
	return w.String(), nil
}

// plainTextOrStrip falls back to tag stripping if the document cannot be parsed.
func plainTextOrStrip(src string) string {
	text, err := ToPlainText(src)
	if err != nil {
		return stripTags(src)
	}
	return text
}

// stripTags turns <br> into newlines and drops all other markup.
func stripTags(src string) string {
	s := brTag.ReplaceAllString(src, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

type textWriter struct {
	lines []string
	cur   strings.Builder
}

func (w *textWriter) node(n *xhtml.Node, indent int) {
	switch n.Type {
	case xhtml.TextNode:
		w.cur.WriteString(n.Data)
		return
	case xhtml.ElementNode:
	case xhtml.DocumentNode:
		w.children(n, indent)
		return
	default:
		return
	}

	switch {
	case skipped[n.DataAtom]:
	case n.DataAtom == atom.Br:
		w.breakLine(indent)
	case n.DataAtom == atom.A:
		w.cur.WriteString(linkText(n))
	case n.DataAtom == atom.Ul || n.DataAtom == atom.Ol:
		w.flush(indent)
		w.blank()
		w.list(n, indent)
		w.blank()
	case blocks[n.DataAtom]:
		w.flush(indent)
		w.children(n, indent)
		w.flush(indent)
		w.blank()
	default:
		w.children(n, indent)
	}
}

func (w *textWriter) children(n *xhtml.Node, indent int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c, indent)
	}
}

// list writes the direct <li> children of a list, then any lists nested in
// each item one level deeper.
func (w *textWriter) list(n *xhtml.Node, indent int) {
	pad := strings.Repeat("  ", indent)
	idx := 1
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != xhtml.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		prefix := "- "
		if n.DataAtom == atom.Ol {
			prefix = strconv.Itoa(idx) + ". "
		}

		var buf strings.Builder
		collectInline(li, &buf)
		if text := squash(buf.String()); text != "" {
			w.lines = append(w.lines, pad+prefix+text)
		}
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xhtml.ElementNode && (c.DataAtom == atom.Ul || c.DataAtom == atom.Ol) {
				w.list(c, indent+1)
			}
		}
		idx++
	}
}

// collectInline gathers the text of an item, skipping nested lists.
func collectInline(n *xhtml.Node, buf *strings.Builder) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == xhtml.TextNode:
			buf.WriteString(c.Data)
		case c.Type != xhtml.ElementNode, skipped[c.DataAtom]:
		case c.DataAtom == atom.Ul || c.DataAtom == atom.Ol:
		case c.DataAtom == atom.Br:
			buf.WriteString(" ")
		case c.DataAtom == atom.A:
			buf.WriteString(linkText(c))
		case blocks[c.DataAtom]:
			buf.WriteString(" ")
			collectInline(c, buf)
			buf.WriteString(" ")
		default:
			collectInline(c, buf)
		}
	}
}

func linkText(a *xhtml.Node) string {
	var href string
	for _, attr := range a.Attr {
		if attr.Key == "href" {
			href = strings.TrimSpace(attr.Val)
		}
	}
	var buf strings.Builder
	collectInline(a, &buf)
	visible := squash(buf.String())
	switch {
	case visible != "" && href != "":
		return visible + " (" + href + ")"
	case visible != "":
		return visible
	default:
		return href
	}
}

// squash removes zero-width spaces and collapses whitespace runs.
func squash(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\u200b", "")), " ")
}

func (w *textWriter) flush(indent int) {
	text := squash(w.cur.String())
	w.cur.Reset()
	if text != "" {
		w.lines = append(w.lines, strings.Repeat("  ", indent)+text)
	}
}

// breakLine ends the current line even when it is empty.
func (w *textWriter) breakLine(indent int) {
	text := squash(w.cur.String())
	w.cur.Reset()
	w.lines = append(w.lines, strings.Repeat("  ", indent)+text)
}

func (w *textWriter) blank() {
	if len(w.lines) > 0 && w.lines[len(w.lines)-1] != "" {
		w.lines = append(w.lines, "")
	}
}

func (w *textWriter) String() string {
	for i, ln := range w.lines {
		if strings.TrimSpace(ln) == "" {
			w.lines[i] = ""
		}
	}
	s := strings.Join(w.lines, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
