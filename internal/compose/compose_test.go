package compose

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vinodismyname/itemsort/internal/items"
	"github.com/vinodismyname/itemsort/internal/paginate"
	"github.com/vinodismyname/itemsort/internal/sortexpr"
	"github.com/vinodismyname/itemsort/pkg/navigation"
)

func params(t *testing.T, formula string) items.FilterParams {
	t.Helper()
	expr, err := sortexpr.NewResolver().Resolve(formula)
	require.NoError(t, err)
	return items.FilterParams{ItemType: items.Cape, SortExpression: expr}
}

func TestSummary_LevelLine(t *testing.T) {
	p := params(t, "luck")
	p.MinLevel, p.MaxLevel = items.IntPtr(0), items.IntPtr(90)
	require.Empty(t, Summary(p))

	p.MinLevel = items.IntPtr(10)
	require.Equal(t, "**Min level:** 10", Summary(p))

	p.MaxLevel = items.IntPtr(60)
	require.Equal(t, "**Min level:** 10, **Max level:** 60", Summary(p))

	p.MinLevel = nil
	require.Equal(t, "**Max level:** 60", Summary(p))
}

func TestSummary_AllLines(t *testing.T) {
	p := params(t, "str")
	p.WeaponElement = "fire"
	p.Ascending = true
	p.MinLevel = items.IntPtr(5)
	p.CharacterID = "1234567"
	require.Equal(t,
		"**Weapon Element:** Fire\n**Order:** Ascending\n**Min level:** 5\n**Character ID:** 1234567",
		Summary(p))
}

func TestTitle(t *testing.T) {
	p := params(t, "2*luck - crit")
	require.Equal(t, "Sort Capes/Wings by 2 * LUK - Crit", Title(p))
}

func TestPage_EmptyResults(t *testing.T) {
	p := params(t, "dex")
	res := items.PageResult{Text: paginate.NoResults, Exhausted: true}
	controls, err := navigation.Controls(p.Cursor, res, p.ExcludedTags)
	require.NoError(t, err)

	out := Page(p, res, controls)
	require.Equal(t, "No results were found", out.Body)
	require.Empty(t, out.Controls)
	require.Equal(t, string(navigation.KindTagSelection), out.TagSelect.CustomID)
	require.Len(t, out.TagSelect.Options, len(items.SortableTags))
}

func TestNewTagSelect(t *testing.T) {
	sel := NewTagSelect(items.NewTagSet(items.TagRare, items.TagSpecialOffer))
	require.Equal(t, 0, sel.MinValues)
	require.Equal(t, len(items.SortableTags)-1, sel.MaxValues)
	require.Equal(t, TagSelectPlaceholder, sel.Placeholder)

	var picked []string
	for _, o := range sel.Options {
		if o.Default {
			picked = append(picked, o.Value)
		}
	}
	require.Equal(t, []string{"rare", "so"}, picked)
	require.Equal(t, "Exclude Dragon Amulet", sel.Options[0].Label)
}

func TestTypePicker(t *testing.T) {
	p := params(t, "wis")
	p.Ascending = true
	pick := TypePicker(p, items.SortableItemTypes)

	require.Equal(t, "Sort items by WIS", pick.Title)
	require.Equal(t, "**Order:** Ascending\n\nClick on one of the buttons below", pick.Summary)
	require.Len(t, pick.Rows, 2)
	require.Len(t, pick.Rows[0], 5)
	require.Len(t, pick.Rows[1], 3)
	require.Equal(t, "Weapon", pick.Rows[0][0].Label)
	require.Equal(t, "show-sort-results|bracer", pick.Rows[1][2].CustomID)
}

func TestParseSummary_RoundTrip(t *testing.T) {
	r := sortexpr.NewResolver()
	cases := []func(*items.FilterParams){
		func(*items.FilterParams) {},
		func(p *items.FilterParams) { p.Ascending = true },
		func(p *items.FilterParams) { p.WeaponElement = "darkness"; p.ItemType = items.Weapon },
		func(p *items.FilterParams) { p.MinLevel = items.IntPtr(12) },
		func(p *items.FilterParams) { p.MinLevel, p.MaxLevel = items.IntPtr(3), items.IntPtr(75) },
		func(p *items.FilterParams) { p.CharacterID = "98765"; p.MaxLevel = items.IntPtr(40) },
	}
	for _, mutate := range cases {
		p := params(t, "3*str + melee def - fire")
		mutate(&p)

		got, err := ParseSummary(Title(p), Summary(p), r)
		require.NoError(t, err)
		require.Equal(t, p.ItemType, got.ItemType)
		require.Equal(t, p.SortExpression.Terms, got.SortExpression.Terms)
		require.Equal(t, p.SortExpression.Label, got.SortExpression.Label)
		require.Equal(t, Summary(p), Summary(got))
	}
}

func TestParseSummary_Picker(t *testing.T) {
	p := params(t, "luck")
	p.WeaponElement = "ice"
	pick := TypePicker(p, items.SortableItemTypes)

	got, err := ParseSummary(pick.Title, pick.Summary, sortexpr.NewResolver())
	require.NoError(t, err)
	require.Equal(t, items.ItemType(""), got.ItemType)
	require.Equal(t, "ice", got.WeaponElement)
	require.Equal(t, "LUK", got.SortExpression.Label)
}

func TestParseSummary_Invalid(t *testing.T) {
	r := sortexpr.NewResolver()
	_, err := ParseSummary("Results", "", r)
	require.ErrorIs(t, err, ErrTitle)
	_, err = ParseSummary("Sort Shoes by LUK", "", r)
	require.ErrorIs(t, err, ErrTitle)
	_, err = ParseSummary("Sort Helms by Nonsense", "", r)
	require.ErrorIs(t, err, sortexpr.ErrUnknownStat)
	_, err = ParseSummary("Sort Helms by LUK", "**Min level:** ten", r)
	require.ErrorIs(t, err, ErrSummary)
	_, err = ParseSummary("Sort Helms by LUK", "something else", r)
	require.ErrorIs(t, err, ErrSummary)
}
