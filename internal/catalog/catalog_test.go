package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vinodismyname/itemsort/internal/items"
	"github.com/vinodismyname/itemsort/internal/security"
	"github.com/vinodismyname/itemsort/internal/store/memstore"
	"github.com/vinodismyname/itemsort/pkg/boterr"
)

func writeWorkbook(t *testing.T, dir, name string, rows ...[]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	for i, r := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef, &r))
	}
	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func sampleRows() [][]any {
	return [][]any{
		{"Blade of Awe", "Weapon", "Sword", 70, "fire, Ice", "20-30", "STR +5, Crit: 3", "Fire 10", "rare+da;so"},
		{},
		{"Doom Ring", "accessory", "Ring", 40, "", "", "Melee Def 4", "", ""},
	}
}

func TestReadWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkbook(t, dir, "items.xlsx", sampleRows()...)
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	recs, err := ReadWorkbook(f, "")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	blade := recs[0]
	require.Equal(t, "Blade of Awe", blade.Title)
	require.Equal(t, "weapon", blade.Category)
	require.Equal(t, "sword", blade.Type)
	require.Equal(t, 70, blade.Level)
	require.Equal(t, []string{"fire", "ice"}, blade.Elements)
	require.Equal(t, []float64{20, 30}, blade.Damage)
	require.Equal(t, []items.Stat{{Key: "str", Value: 5}, {Key: "crit", Value: 3}}, blade.Bonuses)
	require.Equal(t, []items.Stat{{Key: "fire", Value: 10}}, blade.Resists)
	require.Equal(t, []items.TagList{
		{Tags: []items.Tag{items.TagRare, items.TagDA}},
		{Tags: []items.Tag{items.TagSpecialOffer}},
	}, blade.TagSet)

	dmg, ok := blade.Field("damage")
	require.True(t, ok)
	require.Equal(t, 25.0, dmg)

	ring := recs[1]
	require.Equal(t, "ring", ring.Type)
	require.Empty(t, ring.Elements)
	require.Equal(t, []items.Stat{{Key: "melee def", Value: 4}}, ring.Bonuses)
	require.Equal(t, []items.TagList{{Tags: []items.Tag{}}}, ring.TagSet)
}

func TestReadWorkbook_Errors(t *testing.T) {
	cases := map[string][]any{
		"bad level":   {"X", "weapon", "sword", "high", "", "", "", "", ""},
		"bad element": {"X", "weapon", "sword", 10, "plasma", "", "", "", ""},
		"bad stat":    {"X", "weapon", "sword", 10, "", "", "STR", "", ""},
		"bad damage":  {"X", "weapon", "sword", 10, "", "a-b", "", "", ""},
		"bad tag":     {"X", "weapon", "sword", 10, "", "", "", "", "Rare Tag"},
		"no title":    {"", "weapon", "sword", 10, "", "", "", "", ""},
	}
	for name, row := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeWorkbook(t, t.TempDir(), "bad.xlsx", row)
			f, err := excelize.OpenFile(path)
			require.NoError(t, err)
			defer func() { _ = f.Close() }()
			_, err = ReadWorkbook(f, "")
			require.Error(t, err)
		})
	}
}

func TestReadWorkbook_MissingColumn(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"title", "level"}))
	_, err := ReadWorkbook(f, "")
	require.ErrorIs(t, err, ErrMissingColumn)

	_, err = ReadWorkbook(f, "Nope")
	require.Error(t, err)
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	path := writeWorkbook(t, dir, "items.xlsx", sampleRows()...)
	guard, err := security.NewGuard([]string{dir})
	require.NoError(t, err)

	store := memstore.New()
	n, err := NewImporter(guard, "").Import(context.Background(), path, store)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, 2, store.Len())
}

func TestImport_Rejected(t *testing.T) {
	dir := t.TempDir()
	guard, err := security.NewGuard([]string{dir})
	require.NoError(t, err)
	im := NewImporter(guard, "")

	_, err = im.Load(filepath.Join(dir, "items.csv"))
	require.Equal(t, boterr.Validation, boterr.CodeOf(err))

	outside := writeWorkbook(t, t.TempDir(), "items.xlsx", sampleRows()...)
	_, err = im.Load(outside)
	require.Equal(t, boterr.ImportFailed, boterr.CodeOf(err))
	require.ErrorIs(t, err, security.ErrNotAllowed)
}
