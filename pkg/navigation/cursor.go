// Package navigation encodes browsing state into UI control identifiers and
// decides which page controls a rendered page offers.
package navigation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vinodismyname/itemsort/config"
	"github.com/vinodismyname/itemsort/internal/items"
)

// Kind names the control an identifier belongs to.
type Kind string

const (
	KindPrevPage     Kind = "sort-prev-page"
	KindNextPage     Kind = "sort-next-page"
	KindTagSelection Kind = "sort-tag-selection"
	KindShowResults  Kind = "show-sort-results"
)

// Separator splits identifier fields. Tag names cannot contain it.
const Separator = "|"

var (
	ErrEmptyID     = errors.New("navigation: empty identifier")
	ErrTooLong     = errors.New("navigation: identifier too long")
	ErrUnknownKind = errors.New("navigation: unknown control kind")
	ErrArity       = errors.New("navigation: wrong number of fields")
	ErrBadValue    = errors.New("navigation: invalid boundary value")
	ErrUnknownTag  = errors.New("navigation: unknown tag")
)

// Cursor is the state carried by a page button: which way to move, the sort
// value at the page edge, and the tags excluded when the page was rendered.
type Cursor struct {
	Kind         Kind
	Value        float64
	ExcludedTags items.TagSet
}

// Encode renders c as kind|value|tags. The value uses the shortest decimal form
// that parses back to the same float.
func Encode(c Cursor) (string, error) {
	if err := validate(&c); err != nil {
		return "", err
	}
	id := strings.Join([]string{
		string(c.Kind),
		strconv.FormatFloat(c.Value, 'f', -1, 64),
		c.ExcludedTags.CSV(),
	}, Separator)
	if len(id) > config.MaxCustomIDLength {
		return "", fmt.Errorf("%w: %d characters", ErrTooLong, len(id))
	}
	return id, nil
}

// Decode parses a page button identifier.
func Decode(id string) (Cursor, error) {
	if id == "" {
		return Cursor{}, ErrEmptyID
	}
	if len(id) > config.MaxCustomIDLength {
		return Cursor{}, fmt.Errorf("%w: %d characters", ErrTooLong, len(id))
	}
	fields := strings.Split(id, Separator)
	if len(fields) != 3 {
		return Cursor{}, fmt.Errorf("%w: got %d", ErrArity, len(fields))
	}
	c := Cursor{Kind: Kind(fields[0]), ExcludedTags: items.NewTagSet()}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %q", ErrBadValue, fields[1])
	}
	c.Value = v
	if fields[2] != "" {
		for _, name := range strings.Split(fields[2], ",") {
			c.ExcludedTags[items.Tag(name)] = struct{}{}
		}
	}
	if err := validate(&c); err != nil {
		return Cursor{}, err
	}
	return c, nil
}

func validate(c *Cursor) error {
	switch c.Kind {
	case KindPrevPage, KindNextPage:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, string(c.Kind))
	}
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) || c.Value == 0 {
		return fmt.Errorf("%w: %v", ErrBadValue, c.Value)
	}
	for t := range c.ExcludedTags {
		if !t.WellFormed() || !t.Sortable() {
			return fmt.Errorf("%w: %q", ErrUnknownTag, string(t))
		}
	}
	return nil
}

// Direction maps the button kind onto a browsing direction.
func (c Cursor) Direction() items.Direction {
	if c.Kind == KindPrevPage {
		return items.Backward
	}
	return items.Forward
}

// Apply moves p to the page this cursor points at.
func (c Cursor) Apply(p *items.FilterParams) {
	p.Cursor = &items.PageCursor{Direction: c.Direction(), Value: c.Value}
	p.ExcludedTags = items.NewTagSet(c.ExcludedTags.Slice()...)
}

// KindOf returns the kind prefix of any control identifier.
func KindOf(id string) Kind {
	kind, _, _ := strings.Cut(id, Separator)
	return Kind(kind)
}

// ShowResultsID is the identifier of a type picker button.
func ShowResultsID(t items.ItemType) string {
	return string(KindShowResults) + Separator + string(t)
}

// DecodeShowResults returns the item type named by a type picker button.
func DecodeShowResults(id string) (items.ItemType, error) {
	kind, rest, ok := strings.Cut(id, Separator)
	if !ok || Kind(kind) != KindShowResults {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	t := items.ItemType(rest)
	if !t.Valid() {
		return "", fmt.Errorf("navigation: unknown item type %q", rest)
	}
	return t, nil
}
