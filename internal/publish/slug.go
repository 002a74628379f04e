package publish

import (
	"encoding/base32"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultSlug is used when a title slugifies to nothing.
const DefaultSlug = "privacy-policy"

var (
	idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)
	spaceRuns  = regexp.MustCompile(`[\s_]+`)
	nonSlug    = regexp.MustCompile(`[^a-z0-9\-]+`)
	hyphenRuns = regexp.MustCompile(`-+`)
	foldMarks  = runes.Remove(runes.In(unicode.Mn))
)

// EncodeID returns a compact, reversible, URL-safe encoding of an order id:
// unpadded lowercase base32 of its UTF-8 bytes.
func EncodeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return strings.ToLower(idEncoding.EncodeToString([]byte(id)))
}

// DecodeID reverses EncodeID.
func DecodeID(encoded string) (string, error) {
	b, err := idEncoding.DecodeString(strings.ToUpper(encoded))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Slugify lowercases s, folds diacritics and reduces it to [a-z0-9-].
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, foldMarks, norm.NFC), s)
	if err != nil {
		folded = s
	}
	out := strings.ToLower(strings.TrimSpace(folded))
	out = spaceRuns.ReplaceAllString(out, "-")
	out = nonSlug.ReplaceAllString(out, "-")
	out = strings.Trim(hyphenRuns.ReplaceAllString(out, "-"), "-")
	if out == "" {
		return DefaultSlug
	}
	return out
}

// Slug derives the page slug from an order id and app title.
func Slug(orderID, title string) string {
	suffix := Slugify(title)
	if prefix := EncodeID(orderID); prefix != "" {
		return prefix + "-" + suffix
	}
	return suffix
}

// OrderIDFromSlug recovers the order id from a slug built by Slug. It
// reports false for slugs without an encoded prefix.
func OrderIDFromSlug(slug string) (string, bool) {
	prefix, _, ok := strings.Cut(slug, "-")
	if !ok || prefix == "" {
		return "", false
	}
	id, err := DecodeID(prefix)
	if err != nil || id == "" || !utf8.ValidString(id) || EncodeID(id) != prefix {
		return "", false
	}
	for _, r := range id {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return "", false
		}
	}
	return id, true
}
