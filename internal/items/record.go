package items

import "strings"

// Stat is a key/value attribute as stored in the item collection. The pair
// layout lets the aggregation turn bonus and resist lists into keyed maps.
type Stat struct {
	Key   string  `bson:"k"`
	Value float64 `bson:"v"`
}

// ItemRecord is a stored item document.
type ItemRecord struct {
	Title    string    `bson:"title"`
	Category string    `bson:"category"`
	Type     string    `bson:"type"`
	Level    int       `bson:"level"`
	Elements []string  `bson:"elements"`
	Damage   []float64 `bson:"damage"`
	Bonuses  []Stat    `bson:"bonuses"`
	Resists  []Stat    `bson:"resists"`
	TagSet   []TagList `bson:"tagSet"`
}

// Field resolves a dotted field path against the derived view of the record:
// damage is averaged and bonuses/resists are keyed by name.
func (r ItemRecord) Field(path string) (float64, bool) {
	switch {
	case path == "damage":
		if len(r.Damage) == 0 {
			return 0, false
		}
		var sum float64
		for _, d := range r.Damage {
			sum += d
		}
		return sum / float64(len(r.Damage)), true
	case path == "level":
		return float64(r.Level), true
	case strings.HasPrefix(path, "bonuses."):
		return lookupStat(r.Bonuses, strings.TrimPrefix(path, "bonuses."))
	case strings.HasPrefix(path, "resists."):
		return lookupStat(r.Resists, strings.TrimPrefix(path, "resists."))
	}
	return 0, false
}

// lookupStat mirrors $arrayToObject: the last pair with a given key wins.
func lookupStat(stats []Stat, key string) (float64, bool) {
	var (
		v     float64
		found bool
	)
	for _, s := range stats {
		if s.Key == key {
			v, found = s.Value, true
		}
	}
	return v, found
}

// HasElement reports whether the record lists element among its elements.
func (r ItemRecord) HasElement(element string) bool {
	for _, e := range r.Elements {
		if e == element {
			return true
		}
	}
	return false
}

// AnyTagList reports whether some tag alternative satisfies pred.
func (r ItemRecord) AnyTagList(pred func(TagList) bool) bool {
	for _, l := range r.TagSet {
		if pred(l) {
			return true
		}
	}
	return false
}
