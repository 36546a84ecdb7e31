package suggest

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/koustreak/colsuggest/internal/pframe"
)

// newCollator returns an English, numeric-aware collator ("2" < "10").
// Collators carry scratch buffers, so each sort gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.English, collate.Numeric)
}

// newPlainCollator compares digits as text ("10" < "2"), the order filter
// options are listed in.
func newPlainCollator() *collate.Collator {
	return collate.New(language.English)
}

// sortItems orders items by label, keeping input order for equal labels.
func sortItems(items []Item) {
	c := newCollator()
	slices.SortStableFunc(items, func(a, b Item) int {
		return c.CompareString(a.Label, b.Label)
	})
}

// itemsFromValues dedups values and pairs each with itself as the label.
func itemsFromValues(values []string) []Item {
	items := make([]Item, 0, len(values))
	for _, v := range dedup(values) {
		items = append(items, Item{Value: v, Label: v})
	}
	sortItems(items)
	return items
}

// dedup keeps the first occurrence of each string.
func dedup(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func axisIDs(specs []pframe.AxisSpec) []pframe.AxisID {
	out := make([]pframe.AxisID, len(specs))
	for i, a := range specs {
		out[i] = a.ID()
	}
	return out
}
