package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/vinodismyname/itemsort/internal/items"
	"github.com/vinodismyname/itemsort/internal/security"
)

var (
	v     *validator.Validate
	vOnce sync.Once

	// CharacterIDPattern matches the numeric ids used by the character pages.
	CharacterIDPattern = regexp.MustCompile(`^[0-9]{2,12}$`)
)

// Validator returns the shared validator with the item rules (itemtype,
// sorttag, charid, filepath_ext) registered.
func Validator() *validator.Validate {
	vOnce.Do(func() {
		v = validator.New()
		_ = v.RegisterValidation("itemtype", func(fl validator.FieldLevel) bool {
			return items.ItemType(fl.Field().String()).Valid()
		})
		// Only tags offered by the exclusion menu can be excluded.
		_ = v.RegisterValidation("sorttag", func(fl validator.FieldLevel) bool {
			t := items.Tag(fl.Field().String())
			return t.WellFormed() && t.Sortable()
		})
		_ = v.RegisterValidation("charid", func(fl validator.FieldLevel) bool {
			return CharacterIDPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("filepath_ext", func(fl validator.FieldLevel) bool {
			ext := strings.ToLower(filepath.Ext(strings.TrimSpace(fl.Field().String())))
			return slices.Contains(security.ImportExtensions, ext)
		})
	})
	return v
}

// ValidateStruct reports the first failed rule of s as "CODE: message", or ""
// when s is valid.
func ValidateStruct(s any) string {
	if err := Validator().Struct(s); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			field := strings.ToLower(fe.Field())
			switch fe.Tag() {
			case "required":
				return fmt.Sprintf("VALIDATION: %s is required", field)
			case "itemtype":
				return fmt.Sprintf("VALIDATION: unknown item type %q", fe.Value())
			case "charid":
				return "VALIDATION: character id must be 2 to 12 digits"
			case "filepath_ext":
				return "VALIDATION: path must be an Excel file (" + strings.Join(security.ImportExtensions, ", ") + ")"
			case "min", "max", "gte", "lte":
				return fmt.Sprintf("VALIDATION: %s must satisfy %s=%s", field, fe.Tag(), fe.Param())
			}
			return fmt.Sprintf("VALIDATION: invalid %s", field)
		}
		return "VALIDATION: invalid inputs"
	}
	return ""
}

// ValidateParams checks filter parameters including the excluded tag set, which
// struct tags cannot reach.
func ValidateParams(p items.FilterParams) string {
	if msg := ValidateStruct(p); msg != "" {
		return msg
	}
	for _, t := range p.ExcludedTags.Slice() {
		if err := Validator().Var(string(t), "sorttag"); err != nil {
			return fmt.Sprintf("UNKNOWN_TAG: %q cannot be excluded", string(t))
		}
	}
	if p.MinLevel != nil && p.MaxLevel != nil && *p.MinLevel > *p.MaxLevel {
		return "VALIDATION: min level must not exceed max level"
	}
	return ""
}
