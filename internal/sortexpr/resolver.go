// Package sortexpr resolves user-typed sort formulas such as "str + 2*dex - crit"
// into normalized weighted field references and a display label. The label is
// itself a valid formula that resolves to the same expression, which is what lets
// navigation re-derive the sort from a rendered message title.
package sortexpr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vinodismyname/itemsort/internal/items"
)

var (
	ErrEmptyFormula     = errors.New("sortexpr: empty formula")
	ErrUnknownStat      = errors.New("sortexpr: unknown stat")
	ErrBadCoefficient   = errors.New("sortexpr: invalid coefficient")
	ErrZeroExpression   = errors.New("sortexpr: expression cancels out")
	ErrCoefficientRange = errors.New("sortexpr: coefficient out of range")
)

// Non-zero coefficient magnitudes must lie within these bounds so sort values
// fit in a control identifier and the label fits in a message title.
const (
	MinCoefficient = 0.001
	MaxCoefficient = 1e6
)

// Resolver turns a formula into a SortExpression.
type Resolver interface {
	Resolve(formula string) (items.SortExpression, error)
}

type stat struct {
	field string
	label string
}

var stats = map[string]stat{
	"str":        {"bonuses.str", "STR"},
	"dex":        {"bonuses.dex", "DEX"},
	"int":        {"bonuses.int", "INT"},
	"cha":        {"bonuses.cha", "CHA"},
	"luk":        {"bonuses.luk", "LUK"},
	"end":        {"bonuses.end", "END"},
	"wis":        {"bonuses.wis", "WIS"},
	"crit":       {"bonuses.crit", "Crit"},
	"bonus":      {"bonuses.bonus", "Bonus"},
	"melee def":  {"bonuses.melee def", "Melee Def"},
	"pierce def": {"bonuses.pierce def", "Pierce Def"},
	"magic def":  {"bonuses.magic def", "Magic Def"},
	"block":      {"bonuses.block", "Block"},
	"parry":      {"bonuses.parry", "Parry"},
	"dodge":      {"bonuses.dodge", "Dodge"},
	"damage":     {"damage", "Damage"},
	"level":      {"level", "Level"},
}

// Elements double as resist names.
var elements = []string{
	"all", "fire", "water", "ice", "wind", "energy", "light", "darkness", "earth",
	"metal", "silver", "poison", "disease", "good", "evil", "health", "immobility", "bacon",
}

var aliases = map[string]string{
	"strength":     "str",
	"dexterity":    "dex",
	"intellect":    "int",
	"intelligence": "int",
	"charisma":     "cha",
	"luck":         "luk",
	"endurance":    "end",
	"wisdom":       "wis",
	"critical":     "crit",
	"mdef":         "melee def",
	"pdef":         "pierce def",
	"mgdef":        "magic def",
	"melee":        "melee def",
	"pierce":       "pierce def",
	"magic":        "magic def",
	"dmg":          "damage",
	"lvl":          "level",
	"lv":           "level",
	"res":          "all",
	"resist":       "all",
	"resists":      "all",
	"dark":         "darkness",
	"elec":         "energy",
	"lightning":    "energy",
	"air":          "wind",
	"nature":       "earth",
}

func init() {
	for _, e := range elements {
		stats[e] = stat{field: "resists." + e, label: strings.ToUpper(e[:1]) + e[1:]}
	}
}

// Unalias maps a stat or element name to its canonical spelling.
func Unalias(name string) string {
	name = strings.Join(strings.Fields(strings.ToLower(name)), " ")
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}

// UnaliasElement normalizes a weapon element filter value.
func UnaliasElement(name string) (string, bool) {
	n := Unalias(name)
	for _, e := range elements {
		if e == n && e != "all" {
			return e, true
		}
	}
	return "", false
}

// Default is the built-in resolver for stat-sum formulas.
type Default struct{}

// NewResolver returns the built-in resolver.
func NewResolver() Default { return Default{} }

// Resolve parses formula. Repeated stats are merged and terms that cancel out
// are dropped.
func (Default) Resolve(formula string) (items.SortExpression, error) {
	raw := strings.TrimSpace(formula)
	if raw == "" {
		return items.SortExpression{}, ErrEmptyFormula
	}

	var (
		terms []items.Term
		index = map[string]int{}
	)
	for _, part := range splitSigned(raw) {
		name := strings.TrimSpace(part.text)
		coef := part.sign
		if i := strings.Index(name, "*"); i >= 0 {
			c, err := strconv.ParseFloat(strings.TrimSpace(name[:i]), 64)
			if err != nil || math.IsNaN(c) || math.IsInf(c, 0) {
				return items.SortExpression{}, fmt.Errorf("%w: %q", ErrBadCoefficient, name[:i])
			}
			if !inRange(c) {
				return items.SortExpression{}, fmt.Errorf("%w: %q", ErrCoefficientRange, strings.TrimSpace(name[:i]))
			}
			coef *= c
			name = name[i+1:]
		}
		canonical := Unalias(name)
		st, ok := stats[canonical]
		if !ok {
			return items.SortExpression{}, fmt.Errorf("%w: %q", ErrUnknownStat, strings.TrimSpace(name))
		}
		if j, seen := index[st.field]; seen {
			terms[j].Coefficient += coef
			continue
		}
		index[st.field] = len(terms)
		terms = append(terms, items.Term{Coefficient: coef, Field: st.field})
	}

	kept := terms[:0]
	for _, t := range terms {
		// merged float residue such as 0.3 - 0.1 - 0.2
		if math.Abs(t.Coefficient) < MinCoefficient/2 {
			continue
		}
		if !inRange(t.Coefficient) {
			return items.SortExpression{}, fmt.Errorf("%w: %s", ErrCoefficientRange, labelFor(t.Field))
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		return items.SortExpression{}, ErrZeroExpression
	}

	return items.SortExpression{
		Formula: raw,
		Label:   label(kept),
		Terms:   kept,
	}, nil
}

func inRange(c float64) bool {
	abs := math.Abs(c)
	return abs == 0 || (abs >= MinCoefficient && abs <= MaxCoefficient)
}

type signedPart struct {
	sign float64
	text string
}

func splitSigned(s string) []signedPart {
	var (
		parts []signedPart
		sign  = 1.0
		buf   strings.Builder
	)
	flush := func() {
		parts = append(parts, signedPart{sign: sign, text: buf.String()})
		buf.Reset()
	}
	for _, r := range s {
		switch r {
		case '+', '-':
			// A leading or repeated operator only changes the sign.
			if strings.TrimSpace(buf.String()) != "" {
				flush()
				sign = 1
			}
			if r == '-' {
				sign = -sign
			}
		default:
			buf.WriteRune(r)
		}
	}
	flush()
	return parts
}

func label(terms []items.Term) string {
	var b strings.Builder
	for i, t := range terms {
		abs := math.Abs(t.Coefficient)
		switch {
		case i == 0 && t.Coefficient < 0:
			b.WriteString("-")
		case i > 0 && t.Coefficient < 0:
			b.WriteString(" - ")
		case i > 0:
			b.WriteString(" + ")
		}
		if abs != 1 {
			b.WriteString(strconv.FormatFloat(abs, 'f', -1, 64))
			b.WriteString(" * ")
		}
		b.WriteString(labelFor(t.Field))
	}
	return b.String()
}

func labelFor(field string) string {
	for _, st := range stats {
		if st.field == field {
			return st.label
		}
	}
	return field
}
