// Package memstore evaluates sort queries over an in-memory item list with the
// same filtering, grouping and ordering as the aggregation pipeline.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vinodismyname/itemsort/config"
	"github.com/vinodismyname/itemsort/internal/items"
	"github.com/vinodismyname/itemsort/internal/paginate"
)

// Store holds item records in insertion order.
type Store struct {
	mu      sync.RWMutex
	records []items.ItemRecord
	limit   int
}

// New returns a store seeded with records.
func New(records ...items.ItemRecord) *Store {
	return &Store{records: append([]items.ItemRecord(nil), records...), limit: config.QueryResultLimit}
}

// InsertItems appends records.
func (s *Store) InsertItems(ctx context.Context, records []items.ItemRecord) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return len(records), nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Aggregate runs the query described by p and streams the resulting groups.
func (s *Store) Aggregate(ctx context.Context, p items.FilterParams) (paginate.GroupStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate.NewSliceStream(s.evaluate(p)), nil
}

type entryKey struct {
	value  float64
	title  string
	tagSet string
}

func (s *Store) evaluate(p items.FilterParams) []items.ItemGroup {
	var (
		order   []entryKey
		entries = map[entryKey]*items.GroupEntry{}
		values  = map[entryKey]float64{}
	)
	for _, rec := range s.records {
		v := p.SortExpression.Evaluate(rec)
		if !Matches(rec, v, p) {
			continue
		}
		k := entryKey{value: v, title: rec.Title, tagSet: tagSetKey(rec.TagSet)}
		e, ok := entries[k]
		if !ok {
			e = &items.GroupEntry{Title: rec.Title, TagSet: rec.TagSet}
			entries[k] = e
			values[k] = v
			order = append(order, k)
		}
		e.Levels = append(e.Levels, rec.Level)
	}

	sort.SliceStable(order, func(i, j int) bool { return order[i].title < order[j].title })

	var (
		groups []items.ItemGroup
		index  = map[float64]int{}
	)
	for _, k := range order {
		v := values[k]
		i, ok := index[v]
		if !ok {
			i = len(groups)
			index[v] = i
			groups = append(groups, items.ItemGroup{SortValue: v})
		}
		groups[i].Items = append(groups[i].Items, *entries[k])
	}

	asc := p.SortAscending()
	sort.SliceStable(groups, func(i, j int) bool {
		if asc {
			return groups[i].SortValue < groups[j].SortValue
		}
		return groups[i].SortValue > groups[j].SortValue
	})
	if len(groups) > s.limit {
		groups = groups[:s.limit]
	}
	return groups
}

// Matches reports whether rec, with derived sort value v, passes every filter
// of p including the cursor bound.
func Matches(rec items.ItemRecord, v float64, p items.FilterParams) bool {
	if v == 0 {
		return false
	}
	if p.Cursor != nil {
		if (p.Cursor.Direction == items.Forward) == p.Ascending {
			if v <= p.Cursor.Value {
				return false
			}
		} else if v >= p.Cursor.Value {
			return false
		}
	}
	if !matchesType(rec, p.ItemType) || AlwaysExcluded(rec) {
		return false
	}
	if p.WeaponElement != "" && !rec.HasElement(p.WeaponElement) {
		return false
	}
	if p.MinLevel != nil && rec.Level < *p.MinLevel {
		return false
	}
	if p.MaxLevel != nil && rec.Level > *p.MaxLevel {
		return false
	}
	if len(p.ExcludedTags) > 0 && !rec.AnyTagList(func(l items.TagList) bool { return l.AvoidsAll(p.ExcludedTags) }) {
		return false
	}
	if p.OwnedTitles != nil && !contains(p.OwnedTitles, rec.Title) {
		return false
	}
	return true
}

func matchesType(rec items.ItemRecord, t items.ItemType) bool {
	switch t {
	case items.Weapon:
		return rec.Category == "weapon"
	case items.Cape:
		return rec.Category == "accessory" && (rec.Type == string(items.Cape) || rec.Type == items.Wings)
	default:
		return rec.Category == "accessory" && rec.Type == string(t)
	}
}

// AlwaysExcluded mirrors the unconditional $nor clause. Tag combinations are
// checked across all alternatives together, the way an array path query
// flattens nested tag lists.
func AlwaysExcluded(rec items.ItemRecord) bool {
	all := items.TagList{}
	for _, l := range rec.TagSet {
		all.Tags = append(all.Tags, l.Tags...)
	}
	return all.HasAll(items.TagArchive) ||
		all.HasAll(items.TagAlexander) ||
		all.HasAll(items.TagTemp, items.TagDefault) ||
		all.HasAll(items.TagTemp, items.TagRare)
}

func tagSetKey(set []items.TagList) string {
	parts := make([]string, len(set))
	for i, l := range set {
		tags := make([]string, len(l.Tags))
		for j, t := range l.Tags {
			tags[j] = string(t)
		}
		parts[i] = strings.Join(tags, ",")
	}
	return fmt.Sprintf("%d:%s", len(set), strings.Join(parts, "|"))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
