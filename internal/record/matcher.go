package record

import (
	"strings"
)

// Fields names the table column ids the matcher reads.
type Fields struct {
	OrderID string
	AppName string
	Links   string
}

// DefaultFields are the column ids of the order table.
var DefaultFields = Fields{
	OrderID: "fldxQWjXD7",
	AppName: "fldaShB3Gb",
	Links:   "fldnLglcRi",
}

// CandidateLink is a labelled link from an order row, visited during harvest.
type CandidateLink struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// MatchResult is the outcome of FindByOrderID.
type MatchResult struct {
	// AppName comes from the first matching row that carries one.
	AppName string
	Found   bool
	// OrderID is the id text as written in the first matching row.
	OrderID string
	// Entry is the first matching row.
	Entry *Node
	// Candidates holds link entries from every matching row, in traversal order.
	Candidates []CandidateLink
}

// FindByOrderID searches the tree depth-first for rows whose order field
// holds targetID. Comparison is exact after trimming and lowercasing.
// Rows of unexpected shape are skipped rather than treated as errors.
func FindByOrderID(tree *Node, targetID string, fields Fields) MatchResult {
	var res MatchResult

	target := normalizeID(targetID)
	if target == "" {
		return res
	}

	tree.Visit(func(n *Node) {
		if n.Kind != KindMap {
			return
		}
		id, ok := rowMatches(n, fields.OrderID, target)
		if !ok {
			return
		}

		if !res.Found {
			res.Found = true
			res.OrderID = id
			res.Entry = n
		}
		// First write wins; later rows never overwrite a captured name.
		if res.AppName == "" {
			res.AppName = firstValueText(n.Get(fields.AppName))
		}
		res.Candidates = append(res.Candidates, linkEntries(n.Get(fields.Links))...)
	})

	return res
}

// rowMatches returns the cleaned id text of the first entry equal to target.
func rowMatches(row *Node, orderField, target string) (string, bool) {
	for _, entry := range fieldValues(row.Get(orderField)) {
		text := cleanText(entry.Get("text").Text())
		if strings.ToLower(text) == target {
			return text, true
		}
	}
	return "", false
}

// fieldValues returns the entries of a {value: [...]} field, or nil when the
// field is absent or not shaped that way.
func fieldValues(field *Node) []*Node {
	value := field.Get("value")
	if value == nil || value.Kind != KindSeq {
		return nil
	}
	return value.Items
}

func firstValueText(field *Node) string {
	values := fieldValues(field)
	if len(values) == 0 {
		return ""
	}
	return cleanText(values[0].Get("text").Text())
}

func linkEntries(field *Node) []CandidateLink {
	var out []CandidateLink
	for _, entry := range fieldValues(field) {
		if entry.Kind != KindMap {
			continue
		}
		link := CandidateLink{
			Text: cleanText(entry.Get("text").Text()),
			URL:  strings.TrimSpace(entry.Get("link").Text()),
		}
		if link.Text == "" && link.URL == "" {
			continue
		}
		out = append(out, link)
	}
	return out
}

func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u200b", ""))
}

func normalizeID(s string) string {
	return strings.ToLower(cleanText(s))
}
