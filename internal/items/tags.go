package items

import (
	"regexp"
	"sort"
	"strings"
)

// Tag is an item acquisition tag such as "rare" or "da".
type Tag string

const (
	TagDA           Tag = "da"
	TagDC           Tag = "dc"
	TagDM           Tag = "dm"
	TagRare         Tag = "rare"
	TagSeasonal     Tag = "seasonal"
	TagSpecialOffer Tag = "so"
	TagGuardian     Tag = "guardian"

	// Never shown in sort results.
	TagArchive   Tag = "ak"
	TagAlexander Tag = "alexander"
	TagTemp      Tag = "temp"
	TagDefault   Tag = "default"
)

// SortableTags is the fixed option set of the tag exclusion menu.
var SortableTags = []Tag{TagDA, TagDC, TagDM, TagRare, TagSeasonal, TagSpecialOffer, TagGuardian}

var prettyTagNames = map[Tag]string{
	TagDA:           "Dragon Amulet",
	TagDC:           "Dragon Coins",
	TagDM:           "Doom",
	TagRare:         "Rare",
	TagSeasonal:     "Seasonal",
	TagSpecialOffer: "Special Offer",
	TagGuardian:     "Guardian",
	TagArchive:      "Archive",
	TagAlexander:    "Alexander",
	TagTemp:         "Temporary",
	TagDefault:      "Default",
}

var tagNamePattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Pretty returns the human readable tag name.
func (t Tag) Pretty() string {
	if p, ok := prettyTagNames[t]; ok {
		return p
	}
	return string(t)
}

// Sortable reports whether t is offered in the exclusion menu.
func (t Tag) Sortable() bool {
	for _, s := range SortableTags {
		if s == t {
			return true
		}
	}
	return false
}

// WellFormed reports whether t only uses characters allowed in tag names.
func (t Tag) WellFormed() bool {
	return tagNamePattern.MatchString(string(t))
}

// TagList is one alternative tagging of an item variant.
type TagList struct {
	Tags []Tag `bson:"tags"`
}

// TagSet is an unordered set of tags.
type TagSet map[Tag]struct{}

// NewTagSet builds a set from tags, dropping duplicates.
func NewTagSet(tags ...Tag) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s TagSet) Has(t Tag) bool {
	_, ok := s[t]
	return ok
}

// Slice returns the tags in canonical order: sortable tags in menu order first,
// then any others alphabetically.
func (s TagSet) Slice() []Tag {
	out := make([]Tag, 0, len(s))
	for _, t := range SortableTags {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	var rest []Tag
	for t := range s {
		if !t.Sortable() {
			rest = append(rest, t)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}

// Strings is Slice converted for drivers and wire formats.
func (s TagSet) Strings() []string {
	tags := s.Slice()
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

// CSV joins the canonical tag order with commas.
func (s TagSet) CSV() string {
	return strings.Join(s.Strings(), ",")
}

// AvoidsAll reports whether none of l's tags are in excluded.
func (l TagList) AvoidsAll(excluded TagSet) bool {
	for _, t := range l.Tags {
		if excluded.Has(t) {
			return false
		}
	}
	return true
}

// HasAll reports whether l carries every tag in want.
func (l TagList) HasAll(want ...Tag) bool {
	for _, w := range want {
		found := false
		for _, t := range l.Tags {
			if t == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
