// Package compose turns filter parameters and a rendered page into the message
// payload shown to the user, and reads the parameters back from that message.
package compose

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vinodismyname/itemsort/config"
	"github.com/vinodismyname/itemsort/internal/items"
	"github.com/vinodismyname/itemsort/internal/textfmt"
	"github.com/vinodismyname/itemsort/pkg/navigation"
)

const (
	labelElement   = "**Weapon Element:** "
	labelOrder     = "**Order:** "
	labelMinLevel  = "**Min level:** "
	labelMaxLevel  = "**Max level:** "
	labelCharacter = "**Character ID:** "

	orderAscending = "Ascending"

	// PickerPrompt closes the type picker summary.
	PickerPrompt = "Click on one of the buttons below"

	// TagSelectPlaceholder is shown when no tag is excluded.
	TagSelectPlaceholder = "All tags included"

	// ButtonsPerRow is the platform limit for one control row.
	ButtonsPerRow = 5
)

// Payload is a platform neutral sort results message.
type Payload struct {
	Title     string
	Summary   string
	Body      string
	Controls  []navigation.Control
	TagSelect TagSelect
}

// TagSelect is the tag exclusion multi-select shown under every page.
type TagSelect struct {
	CustomID    string
	Placeholder string
	MinValues   int
	MaxValues   int
	Options     []TagOption
}

// TagOption is one entry of the exclusion menu.
type TagOption struct {
	Label   string
	Value   string
	Default bool
}

// Picker is the item type chooser sent for a multi-type sort.
type Picker struct {
	Title   string
	Summary string
	Rows    [][]navigation.Control
}

// Summary lists the filters that differ from their defaults, one per line.
func Summary(p items.FilterParams) string {
	var lines []string
	if p.WeaponElement != "" {
		lines = append(lines, labelElement+textfmt.Capitalize(p.WeaponElement))
	}
	if p.Ascending {
		lines = append(lines, labelOrder+orderAscending)
	}
	var levels []string
	if p.MinLevel != nil && *p.MinLevel != config.DefaultMinLevel {
		levels = append(levels, labelMinLevel+strconv.Itoa(*p.MinLevel))
	}
	if p.MaxLevel != nil && *p.MaxLevel != config.DefaultMaxLevel {
		levels = append(levels, labelMaxLevel+strconv.Itoa(*p.MaxLevel))
	}
	if len(levels) > 0 {
		lines = append(lines, strings.Join(levels, ", "))
	}
	if p.CharacterID != "" {
		lines = append(lines, labelCharacter+p.CharacterID)
	}
	return strings.Join(lines, "\n")
}

// Title names the item type and the sort expression.
func Title(p items.FilterParams) string {
	return fmt.Sprintf("Sort %s by %s", p.ItemType.Pretty(), p.SortExpression.Label)
}

// Page assembles the results message.
func Page(p items.FilterParams, result items.PageResult, controls []navigation.Control) Payload {
	return Payload{
		Title:     Title(p),
		Summary:   Summary(p),
		Body:      result.Text,
		Controls:  controls,
		TagSelect: NewTagSelect(p.ExcludedTags),
	}
}

// NewTagSelect builds the exclusion menu with excluded tags pre-selected. At
// least one tag always stays included.
func NewTagSelect(excluded items.TagSet) TagSelect {
	opts := make([]TagOption, len(items.SortableTags))
	for i, t := range items.SortableTags {
		opts[i] = TagOption{
			Label:   "Exclude " + t.Pretty(),
			Value:   string(t),
			Default: excluded.Has(t),
		}
	}
	return TagSelect{
		CustomID:    string(navigation.KindTagSelection),
		Placeholder: TagSelectPlaceholder,
		MinValues:   0,
		MaxValues:   len(items.SortableTags) - 1,
		Options:     opts,
	}
}

// TypePicker offers one button per item type for a sort that did not name one.
func TypePicker(p items.FilterParams, types []items.ItemType) Picker {
	var rows [][]navigation.Control
	for start := 0; start < len(types); start += ButtonsPerRow {
		end := min(start+ButtonsPerRow, len(types))
		row := make([]navigation.Control, 0, end-start)
		for _, t := range types[start:end] {
			row = append(row, navigation.Control{
				Kind:     navigation.KindShowResults,
				Label:    textfmt.Capitalize(string(t)),
				CustomID: navigation.ShowResultsID(t),
			})
		}
		rows = append(rows, row)
	}
	return Picker{
		Title:   "Sort items by " + p.SortExpression.Label,
		Summary: Summary(p) + "\n\n" + PickerPrompt,
		Rows:    rows,
	}
}
