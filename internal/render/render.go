// Package render fills the privacy policy template with an order's app,
// company and contact email, and derives a plain-text version of the result.
package render

import (
	"errors"
	"html"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrTemplateNotFound is returned by LoadTemplate when the file does not exist.
var ErrTemplateNotFound = eris.New("render: template not found")

// atSign matches a literal or entity-encoded "@".
const atSign = `(?:@|&#0*64;|&#[xX]0*40;|&commat;)`

// entityEmail matches addresses whose "@" is written as an HTML entity.
var entityEmail = regexp.MustCompile(`[A-Za-z0-9._%+\-]+(?:&#0*64;|&#[xX]0*40;|&commat;)[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// parenEmail matches a parenthesized mention containing an at sign, such as
// "( jane &#64; example.com )".
var parenEmail = regexp.MustCompile(`\(\s*([^()<>"\s]+\s*` + atSign + `\s*[^()<>"\s]+)\s*\)`)

// Fields are the values substituted into the template.
type Fields struct {
	App     string
	Company string
	Email   string
}

func (f Fields) value(slot string) (string, bool) {
	switch slot {
	case SlotApp:
		return f.App, true
	case SlotCompany:
		return f.Company, true
	case SlotEmail:
		return f.Email, true
	default:
		return "", false
	}
}

// Drift reports a substitution that could not be applied because the
// template no longer has the expected structure.
type Drift struct {
	Slot   string `json:"slot"`
	Reason string `json:"reason"`
}

func (d Drift) String() string { return d.Slot + ": " + d.Reason }

// Page is a rendered template.
type Page struct {
	HTML     string  `json:"html"`
	Text     string  `json:"text"`
	Warnings []Drift `json:"warnings,omitempty"`
}

// Renderer applies a Schema to templates.
type Renderer struct {
	slots []compiledSlot
	email *regexp.Regexp
}

// NewRenderer compiles schema.
func NewRenderer(schema Schema) (*Renderer, error) {
	r := &Renderer{}
	for _, s := range schema.Slots {
		cs, err := compileSlot(s)
		if err != nil {
			return nil, err
		}
		r.slots = append(r.slots, cs)
	}

	pattern := schema.EmailPattern
	if pattern == "" {
		pattern = DefaultEmailPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, eris.Wrap(err, "render: compile email pattern")
	}
	r.email = re
	return r, nil
}

// LoadTemplate reads the template at path.
func LoadTemplate(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", eris.Wrap(ErrTemplateNotFound, "no template path configured")
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", eris.Wrapf(ErrTemplateNotFound, "%s", path)
	}
	if err != nil {
		return "", eris.Wrapf(err, "render: read template %s", path)
	}
	return string(data), nil
}

// Render substitutes f into tmpl. Each slot replaces only the first span
// between its anchors; all other bytes of tmpl are kept. Slots whose anchors
// are missing are reported in Page.Warnings and left unchanged.
func (r *Renderer) Render(tmpl string, f Fields) Page {
	out := tmpl
	var warnings []Drift

	for _, s := range r.slots {
		val, ok := f.value(s.Name)
		if !ok {
			warnings = append(warnings, Drift{Slot: s.Name, Reason: "no value for slot"})
			continue
		}
		next, drift := replaceSlot(out, s, html.EscapeString(val))
		if drift != nil {
			warnings = append(warnings, *drift)
			continue
		}
		out = next
	}

	if email := strings.TrimSpace(f.Email); email != "" {
		next, drift := r.replaceEmails(out, email)
		if drift != nil {
			warnings = append(warnings, *drift)
		}
		out = next
	}

	for _, w := range warnings {
		zap.L().Warn("render: template drift",
			zap.String("slot", w.Slot),
			zap.String("reason", w.Reason),
		)
	}

	return Page{HTML: out, Text: plainTextOrStrip(out), Warnings: warnings}
}

func replaceSlot(src string, s compiledSlot, value string) (string, *Drift) {
	loc := s.full.FindStringSubmatchIndex(src)
	if loc == nil {
		return src, slotDrift(src, s)
	}
	idx := s.full.SubexpIndex("value")
	start, end := loc[2*idx], loc[2*idx+1]
	return src[:start] + value + src[end:], nil
}

// slotDrift names the anchor that is absent.
func slotDrift(src string, s compiledSlot) *Drift {
	b := s.before.FindStringIndex(src)
	if b == nil {
		return &Drift{Slot: s.Name, Reason: "before anchor not found"}
	}
	if s.after.FindStringIndex(src[b[1]:]) == nil {
		return &Drift{Slot: s.Name, Reason: "after anchor not found following before anchor"}
	}
	return &Drift{Slot: s.Name, Reason: "no text between anchors"}
}

// replaceEmails swaps every address in src for email in a single pass,
// longest match first, covering plain, entity-encoded and parenthesized
// forms.
func (r *Renderer) replaceEmails(src, email string) (string, *Drift) {
	escaped := html.EscapeString(email)

	found := make(map[string]string)
	for _, old := range r.email.FindAllString(src, -1) {
		found[old] = email
		if esc := html.EscapeString(old); esc != old {
			found[esc] = escaped
		}
	}
	for _, old := range entityEmail.FindAllString(src, -1) {
		found[old] = escaped
	}
	for _, m := range parenEmail.FindAllStringSubmatch(src, -1) {
		if _, ok := found[m[1]]; !ok {
			found[m[1]] = escaped
		}
	}
	if len(found) == 0 {
		return src, &Drift{Slot: SlotEmail, Reason: "no email address found in template"}
	}

	olds := make([]string, 0, len(found))
	for old := range found {
		olds = append(olds, old)
	}
	sort.Slice(olds, func(i, j int) bool {
		if len(olds[i]) != len(olds[j]) {
			return len(olds[i]) > len(olds[j])
		}
		return olds[i] < olds[j]
	})

	pairs := make([]string, 0, 2*len(olds))
	for _, old := range olds {
		pairs = append(pairs, old, found[old])
	}
	return strings.NewReplacer(pairs...).Replace(src), nil
}
