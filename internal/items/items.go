// Package items defines the domain values shared by the sort pipeline, the
// paginator, and the message composer: item types, tags, filter parameters,
// stored item records, and the grouped results streamed back from the store.
package items

import (
	"sort"
	"strings"
)

// ItemType is a sortable item category exposed as a slash sub-command.
type ItemType string

const (
	Weapon   ItemType = "weapon"
	Cape     ItemType = "cape"
	Helm     ItemType = "helm"
	Belt     ItemType = "belt"
	Necklace ItemType = "necklace"
	Ring     ItemType = "ring"
	Trinket  ItemType = "trinket"
	Bracer   ItemType = "bracer"
)

// Wings share the cape slot and are listed together with capes.
const Wings = "wings"

// SortableItemTypes lists every item type in display order.
var SortableItemTypes = []ItemType{Weapon, Cape, Helm, Belt, Necklace, Ring, Trinket, Bracer}

var prettyItemTypes = map[ItemType]string{
	Weapon:   "Weapons",
	Cape:     "Capes/Wings",
	Helm:     "Helms",
	Belt:     "Belts",
	Necklace: "Necklaces",
	Ring:     "Rings",
	Trinket:  "Trinkets",
	Bracer:   "Bracers",
}

// Pretty returns the plural display name used in message titles.
func (t ItemType) Pretty() string {
	if p, ok := prettyItemTypes[t]; ok {
		return p
	}
	return string(t)
}

// Valid reports whether t is one of SortableItemTypes.
func (t ItemType) Valid() bool {
	_, ok := prettyItemTypes[t]
	return ok
}

// ParseItemType accepts either the command name ("helm") or the pretty name ("Helms").
func ParseItemType(s string) (ItemType, bool) {
	s = strings.TrimSpace(s)
	if t := ItemType(strings.ToLower(s)); t.Valid() {
		return t, true
	}
	for t, p := range prettyItemTypes {
		if strings.EqualFold(p, s) {
			return t, true
		}
	}
	return "", false
}

// Direction is the browsing direction of a page cursor.
type Direction int

const (
	Forward Direction = iota + 1
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "none"
	}
}

// PageCursor is the sort value at a page edge together with the direction to
// browse away from it. A nil *PageCursor means the first page.
type PageCursor struct {
	Direction Direction
	Value     float64
}

// Term is one weighted field reference of a derived sort expression.
// Field is a dotted document path such as "bonuses.str", "resists.fire",
// "damage" or "level".
type Term struct {
	Coefficient float64
	Field       string
}

// SortExpression is the resolved form of a user-typed sort formula.
type SortExpression struct {
	Formula string
	Label   string
	Terms   []Term
}

// Evaluate computes the derived sort value of rec. Missing fields count as zero.
func (e SortExpression) Evaluate(rec ItemRecord) float64 {
	var total float64
	for _, t := range e.Terms {
		v, _ := rec.Field(t.Field)
		total += t.Coefficient * v
	}
	return total
}

// FilterParams holds everything needed to build one sort query. It is owned by
// the request that created it.
type FilterParams struct {
	ItemType       ItemType `validate:"required,itemtype"`
	Ascending      bool
	SortExpression SortExpression
	WeaponElement  string
	MinLevel       *int `validate:"omitempty,min=0,max=90"`
	MaxLevel       *int `validate:"omitempty,min=0,max=90"`
	Cursor         *PageCursor
	ExcludedTags   TagSet
	CharacterID    string `validate:"omitempty,charid"`

	// OwnedTitles restricts results to these titles when non-nil. It is
	// resolved from CharacterID and never rendered.
	OwnedTitles []string
}

// NextPageValue returns the forward cursor value, if any.
func (p FilterParams) NextPageValue() (float64, bool) {
	if p.Cursor != nil && p.Cursor.Direction == Forward {
		return p.Cursor.Value, true
	}
	return 0, false
}

// PrevPageValue returns the backward cursor value, if any.
func (p FilterParams) PrevPageValue() (float64, bool) {
	if p.Cursor != nil && p.Cursor.Direction == Backward {
		return p.Cursor.Value, true
	}
	return 0, false
}

// Backward reports whether this request browses toward the start of the results.
func (p FilterParams) Backward() bool {
	return p.Cursor != nil && p.Cursor.Direction == Backward
}

// SortAscending reports the fetch order of groups. Browsing backward reverses the
// display order so the page adjacent to the cursor is streamed first.
func (p FilterParams) SortAscending() bool {
	return p.Ascending != p.Backward()
}

// IntPtr is a helper for optional level bounds.
func IntPtr(v int) *int { return &v }

// GroupEntry is one title within a group with every level it occurs at.
type GroupEntry struct {
	Title  string    `bson:"title"`
	Levels []int     `bson:"levels"`
	TagSet []TagList `bson:"tagSet"`
}

// ItemGroup is the unit of pagination: all entries sharing one sort value.
type ItemGroup struct {
	SortValue float64      `bson:"customSortValue"`
	Items     []GroupEntry `bson:"items"`
}

// PageResult is the outcome of one accumulation pass.
type PageResult struct {
	Text            string
	FirstGroupValue *float64
	LastGroupValue  *float64
	Exhausted       bool
}

// SortEntries orders entries by title, the display order inside a group.
func SortEntries(entries []GroupEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Title < entries[j].Title })
}
