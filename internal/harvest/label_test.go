package harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveCompanyName(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Doc 2 - Hive Labs", "Hive Labs"},
		{"Report - Part A - Acme Corp", "Acme Corp"},
		{"Listing Bright Apps Inc", "Bright Apps Inc"},
		{"Solo", "Solo"},
		{"Trailing -", "-"},
		{"  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveCompanyName(tt.label))
		})
	}
}

func TestSortItems(t *testing.T) {
	items := []Item{
		{Text: "Doc 10"},
		{Text: "no number"},
		{Text: "Doc 2"},
		{Text: "Doc 2 again"},
		{Text: "Doc 1"},
	}
	SortItems(items)

	var got []string
	for _, it := range items {
		got = append(got, it.Text)
	}
	assert.Equal(t, []string{"no number", "Doc 1", "Doc 2", "Doc 2 again", "Doc 10"}, got)
}
