package query

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vinodismyname/itemsort/config"
	"github.com/vinodismyname/itemsort/internal/items"
)

func baseParams() items.FilterParams {
	return items.FilterParams{
		ItemType: items.Helm,
		SortExpression: items.SortExpression{
			Formula: "str",
			Label:   "STR",
			Terms:   []items.Term{{Coefficient: 1, Field: "bonuses.str"}},
		},
	}
}

func stageKeys(p bson.D) string { return p[0].Key }

func lookup(t *testing.T, d bson.D, key string) any {
	t.Helper()
	for _, e := range d {
		if e.Key == key {
			return e.Value
		}
	}
	t.Fatalf("key %q not found in %v", key, d)
	return nil
}

func has(d bson.D, key string) bool {
	for _, e := range d {
		if e.Key == key {
			return true
		}
	}
	return false
}

func TestBuildPipeline_StageOrder(t *testing.T) {
	pl := BuildPipeline(baseParams())
	var keys []string
	for _, st := range pl {
		keys = append(keys, stageKeys(st))
	}
	require.Equal(t, []string{
		"$addFields", "$addFields", "$match", "$group", "$sort", "$group", "$addFields", "$sort", "$limit",
	}, keys)
	require.Equal(t, config.QueryResultLimit, pl[8][0].Value)
}

func TestBuildPipeline_Deterministic(t *testing.T) {
	p := baseParams()
	p.ExcludedTags = items.NewTagSet(items.TagRare, items.TagDA)
	p.MinLevel = items.IntPtr(10)
	require.Equal(t, BuildPipeline(p), BuildPipeline(p))
}

func TestCursorDirections(t *testing.T) {
	cases := []struct {
		name      string
		ascending bool
		cursor    *items.PageCursor
		op        string
		sortOrder int
	}{
		{"first page descending", false, nil, "", -1},
		{"first page ascending", true, nil, "", 1},
		{"ascending forward", true, &items.PageCursor{Direction: items.Forward, Value: 5}, "$gt", 1},
		{"ascending backward", true, &items.PageCursor{Direction: items.Backward, Value: 5}, "$lt", -1},
		{"descending forward", false, &items.PageCursor{Direction: items.Forward, Value: 5}, "$lt", -1},
		{"descending backward", false, &items.PageCursor{Direction: items.Backward, Value: 5}, "$gt", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := baseParams()
			p.Ascending = tc.ascending
			p.Cursor = tc.cursor
			pl := BuildPipeline(p)

			match := pl[2][0].Value.(bson.D)
			cond := lookup(t, match, SortValueField).(bson.D)
			require.Equal(t, true, lookup(t, cond, "$exists"))
			require.Equal(t, 0, lookup(t, cond, "$ne"))
			if tc.op == "" {
				require.False(t, has(cond, "$gt"))
				require.False(t, has(cond, "$lt"))
			} else {
				require.Equal(t, 5.0, lookup(t, cond, tc.op))
			}

			sortStage := pl[7][0].Value.(bson.D)
			require.Equal(t, tc.sortOrder, lookup(t, sortStage, SortValueField))
		})
	}
}

func TestMatchFilter_Optional(t *testing.T) {
	p := baseParams()
	m := MatchFilter(p)
	require.False(t, has(m, "elements"))
	require.False(t, has(m, "level"))
	require.False(t, has(m, "tagSet"))
	require.False(t, has(m, "title"))
	require.Equal(t, AlwaysExcluded(), lookup(t, m, "$nor"))

	p.ItemType = items.Weapon
	p.WeaponElement = "fire"
	p.MaxLevel = items.IntPtr(40)
	p.ExcludedTags = items.NewTagSet(items.TagSeasonal, items.TagRare)
	p.OwnedTitles = []string{"Blade of Awe"}
	m = MatchFilter(p)

	require.Equal(t, "weapon", lookup(t, m, "category"))
	require.False(t, has(m, "type"))
	require.Equal(t, "fire", lookup(t, m, "elements"))
	require.Equal(t, bson.D{{Key: "$lte", Value: 40}}, lookup(t, m, "level"))
	require.Equal(t,
		bson.D{{Key: "$elemMatch", Value: bson.D{{Key: "tags", Value: bson.D{{Key: "$nin", Value: []string{"rare", "seasonal"}}}}}}},
		lookup(t, m, "tagSet"))
	require.Equal(t, bson.D{{Key: "$in", Value: []string{"Blade of Awe"}}}, lookup(t, m, "title"))
}

func TestItemTypeFilter(t *testing.T) {
	require.Equal(t, bson.D{{Key: "category", Value: "weapon"}}, ItemTypeFilter(items.Weapon))
	require.Equal(t, bson.D{
		{Key: "category", Value: "accessory"},
		{Key: "type", Value: bson.D{{Key: "$in", Value: bson.A{"cape", "wings"}}}},
	}, ItemTypeFilter(items.Cape))
	require.Equal(t, bson.D{{Key: "category", Value: "accessory"}, {Key: "type", Value: "ring"}}, ItemTypeFilter(items.Ring))
}

func TestSortValueExpr(t *testing.T) {
	e := items.SortExpression{Terms: []items.Term{
		{Coefficient: 1, Field: "bonuses.str"},
		{Coefficient: -2, Field: "resists.fire"},
	}}
	require.Equal(t, bson.D{{Key: "$add", Value: bson.A{
		bson.D{{Key: "$ifNull", Value: bson.A{"$bonuses.str", 0}}},
		bson.D{{Key: "$multiply", Value: bson.A{-2.0, bson.D{{Key: "$ifNull", Value: bson.A{"$resists.fire", 0}}}}}},
	}}}, SortValueExpr(e))
}
