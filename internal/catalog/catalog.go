// Package catalog imports item records from Excel workbooks.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/vinodismyname/itemsort/internal/items"
	"github.com/vinodismyname/itemsort/internal/security"
	"github.com/vinodismyname/itemsort/internal/sortexpr"
	"github.com/vinodismyname/itemsort/pkg/boterr"
	"github.com/vinodismyname/itemsort/pkg/validation"
)

// Columns recognised in the header row. Order in the sheet is free.
const (
	ColTitle    = "title"
	ColCategory = "category"
	ColType     = "type"
	ColLevel    = "level"
	ColElements = "elements"
	ColDamage   = "damage"
	ColBonuses  = "bonuses"
	ColResists  = "resists"
	ColTags     = "tags"
)

// Header is the canonical column order written by tests and templates.
var Header = []string{ColTitle, ColCategory, ColType, ColLevel, ColElements, ColDamage, ColBonuses, ColResists, ColTags}

var requiredColumns = []string{ColTitle, ColCategory, ColLevel}

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("catalog: missing column")

// Writer persists imported records.
type Writer interface {
	InsertItems(ctx context.Context, records []items.ItemRecord) (int, error)
}

// Importer reads workbooks from guarded directories.
type Importer struct {
	guard *security.Guard
	sheet string
}

// NewImporter returns an Importer. An empty sheet means the first sheet.
func NewImporter(guard *security.Guard, sheet string) *Importer {
	return &Importer{guard: guard, sheet: sheet}
}

// WithSheet returns a copy reading sheet instead.
func (im *Importer) WithSheet(sheet string) *Importer {
	cp := *im
	cp.sheet = sheet
	return &cp
}

type importRequest struct {
	Path string `validate:"required,filepath_ext"`
}

// Load reads every record of the workbook at path.
func (im *Importer) Load(path string) ([]items.ItemRecord, error) {
	if msg := validation.ValidateStruct(importRequest{Path: path}); msg != "" {
		_, text, _ := strings.Cut(msg, ": ")
		return nil, boterr.New(boterr.Validation, text)
	}
	resolved, err := im.guard.Resolve(path)
	if err != nil {
		return nil, boterr.Wrap(boterr.ImportFailed, err)
	}
	f, err := excelize.OpenFile(resolved)
	if err != nil {
		return nil, boterr.Wrap(boterr.ImportFailed, fmt.Errorf("catalog: open %s: %w", resolved, err))
	}
	defer func() { _ = f.Close() }()

	recs, err := ReadWorkbook(f, im.sheet)
	if err != nil {
		return nil, boterr.Wrap(boterr.ImportFailed, err)
	}
	return recs, nil
}

// Import loads path and writes its records to w.
func (im *Importer) Import(ctx context.Context, path string, w Writer) (int, error) {
	recs, err := im.Load(path)
	if err != nil {
		return 0, err
	}
	n, err := w.InsertItems(ctx, recs)
	if err != nil {
		return n, boterr.Wrap(boterr.ImportFailed, err)
	}
	zerolog.Ctx(ctx).Info().Str("path", path).Int("records", n).Msg("catalog imported")
	return n, nil
}

// ReadWorkbook parses sheet (or the first sheet when empty). Blank rows are skipped.
func ReadWorkbook(f *excelize.File, sheet string) ([]items.ItemRecord, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("catalog: sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var (
		cols   map[string]int
		out    []items.ItemRecord
		rowIdx int
	)
	for rows.Next() {
		rowIdx++
		vals, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("catalog: row %d: %w", rowIdx, err)
		}
		if cols == nil {
			cols, err = headerIndex(vals)
			if err != nil {
				return nil, err
			}
			continue
		}
		if blank(vals) {
			continue
		}
		rec, err := parseRow(vals, cols)
		if err != nil {
			return nil, fmt.Errorf("catalog: row %d: %w", rowIdx, err)
		}
		out = append(out, rec)
	}
	if err := rows.Error(); err != nil {
		return nil, err
	}
	if cols == nil {
		return nil, fmt.Errorf("%w: sheet %q has no header", ErrMissingColumn, sheet)
	}
	return out, nil
}

func headerIndex(vals []string) (map[string]int, error) {
	cols := make(map[string]int, len(vals))
	for i, v := range vals {
		cols[strings.ToLower(strings.TrimSpace(v))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return cols, nil
}

func blank(vals []string) bool {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func cell(vals []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(vals) {
		return ""
	}
	return strings.TrimSpace(vals[i])
}

func parseRow(vals []string, cols map[string]int) (items.ItemRecord, error) {
	rec := items.ItemRecord{
		Title:    cell(vals, cols, ColTitle),
		Category: strings.ToLower(cell(vals, cols, ColCategory)),
		Type:     strings.ToLower(cell(vals, cols, ColType)),
	}
	if rec.Title == "" {
		return rec, errors.New("empty title")
	}
	level, err := strconv.Atoi(cell(vals, cols, ColLevel))
	if err != nil {
		return rec, fmt.Errorf("level: %w", err)
	}
	rec.Level = level

	for _, e := range splitList(cell(vals, cols, ColElements), ",") {
		el, ok := sortexpr.UnaliasElement(e)
		if !ok {
			return rec, fmt.Errorf("unknown element %q", e)
		}
		rec.Elements = append(rec.Elements, el)
	}
	if rec.Damage, err = parseDamage(cell(vals, cols, ColDamage)); err != nil {
		return rec, err
	}
	if rec.Bonuses, err = parseStats(cell(vals, cols, ColBonuses)); err != nil {
		return rec, fmt.Errorf("bonuses: %w", err)
	}
	if rec.Resists, err = parseStats(cell(vals, cols, ColResists)); err != nil {
		return rec, fmt.Errorf("resists: %w", err)
	}
	if rec.TagSet, err = parseTags(cell(vals, cols, ColTags)); err != nil {
		return rec, err
	}
	return rec, nil
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDamage accepts a range such as "12-18" or a single value.
func parseDamage(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	var out []float64
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == ',' || r == ' ' }) {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("damage %q: %w", s, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseStats reads "STR +5, Melee Def -2" into canonical key/value pairs.
func parseStats(s string) ([]items.Stat, error) {
	var out []items.Stat
	for _, part := range splitList(s, ",") {
		i := strings.LastIndexAny(part, " :=")
		if i <= 0 {
			return nil, fmt.Errorf("stat %q needs a name and a value", part)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(part[i+1:]), 64)
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", part, err)
		}
		name := strings.TrimRight(part[:i], " :=")
		out = append(out, items.Stat{Key: sortexpr.Unalias(name), Value: v})
	}
	return out, nil
}

// parseTags reads alternatives separated by ";" with "+" joining the tags of
// one alternative, e.g. "rare+da;so". An empty cell is one untagged alternative.
func parseTags(s string) ([]items.TagList, error) {
	if s == "" {
		return []items.TagList{{Tags: []items.Tag{}}}, nil
	}
	var out []items.TagList
	for _, alt := range strings.Split(s, ";") {
		l := items.TagList{Tags: []items.Tag{}}
		for _, name := range splitList(alt, "+") {
			t := items.Tag(strings.ToLower(name))
			if !t.WellFormed() {
				return nil, fmt.Errorf("malformed tag %q", name)
			}
			l.Tags = append(l.Tags, t)
		}
		out = append(out, l)
	}
	return out, nil
}
