// Package textfmt holds the small display helpers shared by renderers.
package textfmt

import (
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Capitalize upper-cases the first letter of each word. A Caser keeps state, so
// one is created per call.
func Capitalize(s string) string {
	return cases.Title(language.English, cases.NoLower).String(s)
}

// Number formats v with the fewest digits that parse back to the same value.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Signed formats v with an explicit plus sign for non-negative values.
func Signed(v float64) string {
	if v < 0 {
		return Number(v)
	}
	return "+" + Number(v)
}
