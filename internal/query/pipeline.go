// Package query compiles sort filter parameters into the aggregation pipeline
// run against the item collection.
package query

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vinodismyname/itemsort/config"
	"github.com/vinodismyname/itemsort/internal/items"
)

// SortValueField is the derived field every later stage filters, groups and sorts on.
const SortValueField = "customSortValue"

// BuildPipeline returns the aggregation stages for p. Stage order is fixed: the
// match depends on fields derived by the first two stages and grouping depends on
// the match having dropped unorderable items.
func BuildPipeline(p items.FilterParams) mongo.Pipeline {
	sortOrder := -1
	if p.SortAscending() {
		sortOrder = 1
	}

	return mongo.Pipeline{
		{{Key: "$addFields", Value: bson.D{
			{Key: "damage", Value: bson.D{{Key: "$avg", Value: "$damage"}}},
			{Key: "bonuses", Value: bson.D{{Key: "$arrayToObject", Value: "$bonuses"}}},
			{Key: "resists", Value: bson.D{{Key: "$arrayToObject", Value: "$resists"}}},
		}}},
		{{Key: "$addFields", Value: bson.D{{Key: SortValueField, Value: SortValueExpr(p.SortExpression)}}}},
		{{Key: "$match", Value: MatchFilter(p)}},
		// Merge the same item appearing at several levels.
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: SortValueField, Value: "$" + SortValueField},
				{Key: "title", Value: "$title"},
				{Key: "tagSet", Value: "$tagSet"},
			}},
			{Key: "levels", Value: bson.D{{Key: "$push", Value: "$level"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.title", Value: 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: SortValueField, Value: "$_id." + SortValueField}}},
			{Key: "items", Value: bson.D{{Key: "$push", Value: bson.D{
				{Key: "title", Value: "$_id.title"},
				{Key: "levels", Value: "$levels"},
				{Key: "tagSet", Value: "$_id.tagSet"},
			}}}},
		}}},
		{{Key: "$addFields", Value: bson.D{{Key: SortValueField, Value: "$_id." + SortValueField}}}},
		{{Key: "$sort", Value: bson.D{{Key: SortValueField, Value: sortOrder}}}},
		{{Key: "$limit", Value: config.QueryResultLimit}},
	}
}

// SortValueExpr renders the weighted terms as an aggregation expression.
// Missing fields count as zero.
func SortValueExpr(e items.SortExpression) bson.D {
	operands := make(bson.A, 0, len(e.Terms))
	for _, t := range e.Terms {
		ref := bson.D{{Key: "$ifNull", Value: bson.A{"$" + t.Field, 0}}}
		if t.Coefficient == 1 {
			operands = append(operands, ref)
			continue
		}
		operands = append(operands, bson.D{{Key: "$multiply", Value: bson.A{t.Coefficient, ref}}})
	}
	return bson.D{{Key: "$add", Value: operands}}
}

// AlwaysExcluded rejects archived items, the Alexander storyline, and the two
// placeholder tag combinations. Not user-configurable.
func AlwaysExcluded() bson.A {
	return bson.A{
		bson.D{{Key: "tagSet.tags", Value: string(items.TagArchive)}},
		bson.D{{Key: "tagSet.tags", Value: string(items.TagAlexander)}},
		bson.D{{Key: "tagSet.tags", Value: bson.D{{Key: "$all", Value: bson.A{string(items.TagTemp), string(items.TagDefault)}}}}},
		bson.D{{Key: "tagSet.tags", Value: bson.D{{Key: "$all", Value: bson.A{string(items.TagTemp), string(items.TagRare)}}}}},
	}
}

// MatchFilter builds the $match document, including the directional cursor bound.
func MatchFilter(p items.FilterParams) bson.D {
	filter := bson.D{{Key: SortValueField, Value: sortValueCondition(p)}}
	filter = append(filter, ItemTypeFilter(p.ItemType)...)
	filter = append(filter, bson.E{Key: "$nor", Value: AlwaysExcluded()})

	if p.WeaponElement != "" {
		filter = append(filter, bson.E{Key: "elements", Value: p.WeaponElement})
	}
	if p.MinLevel != nil || p.MaxLevel != nil {
		level := bson.D{}
		if p.MinLevel != nil {
			level = append(level, bson.E{Key: "$gte", Value: *p.MinLevel})
		}
		if p.MaxLevel != nil {
			level = append(level, bson.E{Key: "$lte", Value: *p.MaxLevel})
		}
		filter = append(filter, bson.E{Key: "level", Value: level})
	}
	if len(p.ExcludedTags) > 0 {
		// Keep an item when at least one of its taggings avoids every excluded tag.
		filter = append(filter, bson.E{Key: "tagSet", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "tags", Value: bson.D{{Key: "$nin", Value: p.ExcludedTags.Strings()}}},
		}}}})
	}
	if p.OwnedTitles != nil {
		filter = append(filter, bson.E{Key: "title", Value: bson.D{{Key: "$in", Value: p.OwnedTitles}}})
	}
	return filter
}

// sortValueCondition requires an orderable sort value and applies the cursor:
// ascending browses forward with $gt and backward with $lt, descending inverts both.
func sortValueCondition(p items.FilterParams) bson.D {
	cond := bson.D{{Key: "$exists", Value: true}, {Key: "$ne", Value: 0}}
	if p.Cursor == nil {
		return cond
	}
	op := "$lt"
	if (p.Cursor.Direction == items.Forward) == p.Ascending {
		op = "$gt"
	}
	return append(cond, bson.E{Key: op, Value: p.Cursor.Value})
}

// ItemTypeFilter maps an item type onto category/type constraints. Capes also
// match wings.
func ItemTypeFilter(t items.ItemType) bson.D {
	switch t {
	case items.Weapon:
		return bson.D{{Key: "category", Value: "weapon"}}
	case items.Cape:
		return bson.D{
			{Key: "category", Value: "accessory"},
			{Key: "type", Value: bson.D{{Key: "$in", Value: bson.A{string(items.Cape), items.Wings}}}},
		}
	default:
		return bson.D{
			{Key: "category", Value: "accessory"},
			{Key: "type", Value: string(t)},
		}
	}
}
