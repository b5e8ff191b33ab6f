package navigation

import (
	"github.com/vinodismyname/itemsort/internal/items"
)

const (
	PrevLabel = "❮ Prev Page"
	NextLabel = "Next Page ❯"
)

// Control is one page button ready for a platform adapter.
type Control struct {
	Kind     Kind
	Label    string
	CustomID string
}

// Controls returns the page buttons for a rendered page. used is the cursor the
// page was fetched with, nil for a first page. The overlapping conditions are
// kept as observed in production.
func Controls(used *items.PageCursor, page items.PageResult, excluded items.TagSet) ([]Control, error) {
	forward := used != nil && used.Direction == items.Forward
	backward := used != nil && used.Direction == items.Backward
	more := !page.Exhausted

	var out []Control
	if (forward || (backward && more)) && page.FirstGroupValue != nil {
		c, err := control(KindPrevPage, PrevLabel, *page.FirstGroupValue, excluded)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if (backward || (used == nil && more) || (forward && more)) && page.LastGroupValue != nil {
		c, err := control(KindNextPage, NextLabel, *page.LastGroupValue, excluded)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func control(kind Kind, label string, value float64, excluded items.TagSet) (Control, error) {
	id, err := Encode(Cursor{Kind: kind, Value: value, ExcludedTags: excluded})
	if err != nil {
		return Control{}, err
	}
	return Control{Kind: kind, Label: label, CustomID: id}, nil
}
