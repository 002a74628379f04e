package harvest

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var firstNumber = regexp.MustCompile(`\d+`)

// DeriveCompanyName extracts the company from a candidate label: the text
// after the last hyphen, else everything after the first word, else the
// label itself.
func DeriveCompanyName(label string) string {
	t := strings.TrimSpace(label)
	if i := strings.LastIndex(t, "-"); i >= 0 {
		if name := strings.TrimSpace(t[i+1:]); name != "" {
			return name
		}
	}
	if fields := strings.Fields(t); len(fields) > 1 {
		_, rest, _ := strings.Cut(t, fields[0])
		return strings.TrimSpace(rest)
	}
	return t
}

// labelNumber returns the first integer in the label, or 0.
func labelNumber(label string) int {
	m := firstNumber.FindString(label)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// SortItems orders items by the first integer in their label. Items with
// equal numbers keep their visit order.
func SortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return labelNumber(items[i].Text) < labelNumber(items[j].Text)
	})
}
