package compose

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vinodismyname/itemsort/internal/items"
	"github.com/vinodismyname/itemsort/internal/sortexpr"
)

var (
	ErrTitle   = errors.New("compose: unrecognised title")
	ErrSummary = errors.New("compose: unrecognised summary line")
)

// pickerType is the pretty type name used by TypePicker titles.
const pickerType = "items"

// ParseSummary rebuilds the filters of a previously rendered message from its
// title and summary. A picker title yields an empty ItemType. Cursor and
// excluded tags are not part of the visible text.
func ParseSummary(title, summary string, resolver sortexpr.Resolver) (items.FilterParams, error) {
	var p items.FilterParams

	rest, ok := strings.CutPrefix(title, "Sort ")
	if !ok {
		return p, fmt.Errorf("%w: %q", ErrTitle, title)
	}
	pretty, label, ok := strings.Cut(rest, " by ")
	if !ok || label == "" {
		return p, fmt.Errorf("%w: %q", ErrTitle, title)
	}
	if pretty != pickerType {
		t, ok := items.ParseItemType(pretty)
		if !ok {
			return p, fmt.Errorf("%w: unknown item type %q", ErrTitle, pretty)
		}
		p.ItemType = t
	}
	expr, err := resolver.Resolve(label)
	if err != nil {
		return p, fmt.Errorf("compose: resolve %q: %w", label, err)
	}
	p.SortExpression = expr

	for _, line := range strings.Split(summary, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "" || line == PickerPrompt:
		case strings.HasPrefix(line, labelElement):
			el, ok := sortexpr.UnaliasElement(strings.TrimPrefix(line, labelElement))
			if !ok {
				return p, fmt.Errorf("%w: %q", ErrSummary, line)
			}
			p.WeaponElement = el
		case line == labelOrder+orderAscending:
			p.Ascending = true
		case strings.HasPrefix(line, labelMinLevel), strings.HasPrefix(line, labelMaxLevel):
			if err := parseLevels(line, &p); err != nil {
				return p, err
			}
		case strings.HasPrefix(line, labelCharacter):
			p.CharacterID = strings.TrimPrefix(line, labelCharacter)
		default:
			return p, fmt.Errorf("%w: %q", ErrSummary, line)
		}
	}
	return p, nil
}

func parseLevels(line string, p *items.FilterParams) error {
	for _, part := range strings.Split(line, ", ") {
		var (
			raw    string
			target **int
		)
		switch {
		case strings.HasPrefix(part, labelMinLevel):
			raw, target = strings.TrimPrefix(part, labelMinLevel), &p.MinLevel
		case strings.HasPrefix(part, labelMaxLevel):
			raw, target = strings.TrimPrefix(part, labelMaxLevel), &p.MaxLevel
		default:
			return fmt.Errorf("%w: %q", ErrSummary, line)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrSummary, line)
		}
		*target = items.IntPtr(n)
	}
	return nil
}
