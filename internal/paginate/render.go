package paginate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vinodismyname/itemsort/internal/items"
	"github.com/vinodismyname/itemsort/internal/textfmt"
)

const (
	// NoResults is the body text of an empty page.
	NoResults = "No results were found"

	// ItemDelimiter separates entries inside a group. It also marks the only safe
	// cut points when a group has to be truncated.
	ItemDelimiter = ", `"

	// Ellipsis is appended to a truncated group.
	Ellipsis = " **...**"
)

// RenderGroup formats a group as a signed sort value heading followed by its
// entries.
func RenderGroup(g items.ItemGroup) string {
	entries := make([]string, len(g.Items))
	for i, e := range g.Items {
		entries[i] = RenderEntry(e)
	}
	return fmt.Sprintf("**%s**\n %s\n\n", textfmt.Signed(g.SortValue), strings.Join(entries, ", "))
}

// RenderEntry formats one title with its levels and tag alternatives, e.g.
// "`Blade of Awe` (lv. 10, 25) [Rare or Da+Rare]".
func RenderEntry(e items.GroupEntry) string {
	levels := make([]string, len(e.Levels))
	for i, l := range e.Levels {
		levels[i] = strconv.Itoa(l)
	}
	return strings.TrimSpace(fmt.Sprintf("`%s` (lv. %s) %s", e.Title, strings.Join(levels, ", "), renderTags(e.TagSet)))
}

func renderTags(set []items.TagList) string {
	if len(set) == 0 {
		return ""
	}
	alts := make([]string, len(set))
	for i, l := range set {
		if len(l.Tags) == 0 {
			alts[i] = "None"
			continue
		}
		names := make([]string, len(l.Tags))
		for j, t := range l.Tags {
			names[j] = textfmt.Capitalize(string(t))
		}
		alts[i] = strings.Join(names, "+")
	}
	joined := strings.Join(alts, " or ")
	if joined == "None" {
		return ""
	}
	return "[" + joined + "]"
}
