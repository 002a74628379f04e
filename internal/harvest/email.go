package harvest

import (
	"regexp"
	"strings"
	"sync"
)

// DefaultEmailDomain is the mailbox domain searched for on candidate pages.
const DefaultEmailDomain = "gmail.com"

// localPart is the character class of an address local part.
const localPart = `A-Za-z0-9._%+\-`

var (
	patternMu sync.Mutex
	patterns  = map[string]*regexp.Regexp{}
)

// emailPattern returns the compiled address pattern for domain. The local
// part must not be preceded by another local-part character, so a longer run
// never yields a truncated match.
func emailPattern(domain string) *regexp.Regexp {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		domain = DefaultEmailDomain
	}

	patternMu.Lock()
	defer patternMu.Unlock()
	if re, ok := patterns[domain]; ok {
		return re
	}
	re := regexp.MustCompile(`(?i)(?:^|[^` + localPart + `])([` + localPart + `]{1,64}@` + regexp.QuoteMeta(domain) + `)\b`)
	patterns[domain] = re
	return re
}

// ExtractEmails returns the addresses at domain found in text, lowercased,
// de-duplicated in order of first appearance, with prefix collisions removed.
func ExtractEmails(text, domain string) []string {
	matches := emailPattern(domain).FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var unique []string
	for _, m := range matches {
		e := strings.ToLower(strings.TrimSpace(m[1]))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		unique = append(unique, e)
	}
	return FilterPrefixCollisions(unique)
}

// FilterPrefixCollisions drops an address when the same address without its
// first character is also present. Page markup often glues a stray letter to
// the front of an address ("xjane@..." next to "jane@..."); this is a
// heuristic and can drop a genuine address in rare cases.
func FilterPrefixCollisions(emails []string) []string {
	set := make(map[string]bool, len(emails))
	for _, e := range emails {
		set[e] = true
	}
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		if len(e) > 1 && set[e[1:]] {
			continue
		}
		out = append(out, e)
	}
	return out
}
