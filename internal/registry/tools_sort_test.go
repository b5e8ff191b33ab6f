package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/vinodismyname/itemsort/internal/browse"
	"github.com/vinodismyname/itemsort/internal/catalog"
	"github.com/vinodismyname/itemsort/internal/items"
	"github.com/vinodismyname/itemsort/internal/security"
	"github.com/vinodismyname/itemsort/internal/sortexpr"
	"github.com/vinodismyname/itemsort/internal/store/memstore"
	"github.com/vinodismyname/itemsort/pkg/navigation"
)

func rings(n int) *memstore.Store {
	recs := make([]items.ItemRecord, 0, n)
	for i := 1; i <= n; i++ {
		recs = append(recs, items.ItemRecord{
			Title:    fmt.Sprintf("Ring %02d", i),
			Category: "accessory",
			Type:     "ring",
			Level:    i,
			Bonuses:  []items.Stat{{Key: "luk", Value: float64(i)}},
			TagSet:   []items.TagList{{Tags: []items.Tag{}}},
		})
	}
	return memstore.New(recs...)
}

func structured(t *testing.T, res *mcp.CallToolResult) SortOutput {
	t.Helper()
	require.False(t, res.IsError, "%v", res.Content)
	out, ok := res.StructuredContent.(SortOutput)
	require.True(t, ok)
	return out
}

func errorText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestSortItems_PagesForwardAndBack(t *testing.T) {
	tools := &SortTools{Service: browse.New(rings(20), sortexpr.NewResolver())}
	ctx := context.Background()

	res, err := tools.SortItems(ctx, mcp.CallToolRequest{}, SortItemsInput{ItemType: "ring", SortExpression: "luck"})
	require.NoError(t, err)
	first := structured(t, res)
	require.Equal(t, "Sort Rings by LUK", first.Title)
	require.True(t, strings.HasPrefix(first.Body, "**+20**"))
	require.Len(t, first.Controls, 1)
	require.Equal(t, string(navigation.KindNextPage), first.Controls[0].Kind)
	require.Equal(t, "sort-next-page|7|", first.Controls[0].CustomID)
	require.Len(t, first.TagChoices, len(items.SortableTags))
	require.Empty(t, first.ExcludedTags)

	res, err = tools.Navigate(ctx, mcp.CallToolRequest{}, NavigateInput{CustomID: first.Controls[0].CustomID, Title: first.Title, Summary: first.Summary})
	require.NoError(t, err)
	second := structured(t, res)
	require.True(t, strings.HasPrefix(second.Body, "**+6**"))
	require.Len(t, second.Controls, 1)
	require.Equal(t, string(navigation.KindPrevPage), second.Controls[0].Kind)

	res, err = tools.Navigate(ctx, mcp.CallToolRequest{}, NavigateInput{CustomID: second.Controls[0].CustomID, Title: second.Title, Summary: second.Summary})
	require.NoError(t, err)
	require.Equal(t, first.Body, structured(t, res).Body)
}

func TestSortItems_Picker(t *testing.T) {
	tools := &SortTools{Service: browse.New(rings(3), sortexpr.NewResolver())}
	ctx := context.Background()

	res, err := tools.SortItems(ctx, mcp.CallToolRequest{}, SortItemsInput{SortExpression: "luck", Ascending: true})
	require.NoError(t, err)
	picker := structured(t, res)
	require.Equal(t, "Sort items by LUK", picker.Title)
	require.Len(t, picker.Controls, len(items.SortableItemTypes))

	var ringID string
	for _, c := range picker.Controls {
		if c.Label == "Ring" {
			ringID = c.CustomID
		}
	}
	require.Equal(t, "show-sort-results|ring", ringID)

	res, err = tools.Navigate(ctx, mcp.CallToolRequest{}, NavigateInput{CustomID: ringID, Title: picker.Title, Summary: picker.Summary})
	require.NoError(t, err)
	page := structured(t, res)
	require.Equal(t, "Sort Rings by LUK", page.Title)
	require.True(t, strings.HasPrefix(page.Body, "**+1**"))
}

func TestNavigate_TagSelectionAndErrors(t *testing.T) {
	tools := &SortTools{Service: browse.New(rings(3), sortexpr.NewResolver())}
	ctx := context.Background()

	res, err := tools.Navigate(ctx, mcp.CallToolRequest{}, NavigateInput{
		CustomID: string(navigation.KindTagSelection),
		Title:    "Sort Rings by LUK",
		Values:   []string{"rare", "da"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"da", "rare"}, structured(t, res).ExcludedTags)

	res, err = tools.Navigate(ctx, mcp.CallToolRequest{}, NavigateInput{CustomID: "sort-next-page|abc|", Title: "Sort Rings by LUK"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(errorText(t, res), "CURSOR_INVALID: "))

	res, err = tools.Navigate(ctx, mcp.CallToolRequest{}, NavigateInput{CustomID: "bogus", Title: "Sort Rings by LUK"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(errorText(t, res), "CURSOR_INVALID: "))

	res, err = tools.SortItems(ctx, mcp.CallToolRequest{}, SortItemsInput{ItemType: "boots", SortExpression: "luck"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(errorText(t, res), "VALIDATION: "))
}

func TestImportCatalog(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"title", "category", "type", "level", "bonuses"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Lucky Ring", "accessory", "ring", 10, "Luck 7"}))
	path := filepath.Join(dir, "items.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	guard, err := security.NewGuard([]string{dir})
	require.NoError(t, err)
	store := memstore.New()
	tools := &SortTools{
		Service:  browse.New(store, sortexpr.NewResolver()),
		Importer: catalog.NewImporter(guard, ""),
		Writer:   store,
	}
	ctx := context.Background()

	res, err := tools.ImportCatalog(ctx, mcp.CallToolRequest{}, ImportCatalogInput{Path: path})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Equal(t, ImportCatalogOutput{Path: path, Inserted: 1}, res.StructuredContent)

	res, err = tools.SortItems(ctx, mcp.CallToolRequest{}, SortItemsInput{ItemType: "ring", SortExpression: "luck"})
	require.NoError(t, err)
	require.Contains(t, structured(t, res).Body, "Lucky Ring")

	res, err = tools.ImportCatalog(ctx, mcp.CallToolRequest{}, ImportCatalogInput{Path: path, Sheet: "Missing"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(errorText(t, res), "IMPORT_FAILED: "))
}

func TestRegisterSortTools_ImportHiddenByFilter(t *testing.T) {
	store := memstore.New()
	dir := t.TempDir()
	guard, err := security.NewGuard([]string{dir})
	require.NoError(t, err)

	reg := New()
	srv := server.NewMCPServer("test", "0")
	RegisterSortTools(srv, reg, &SortTools{
		Service:  browse.New(store, sortexpr.NewResolver()),
		Importer: catalog.NewImporter(guard, ""),
		Writer:   store,
	})

	tools, err := reg.Tools(context.Background())
	require.NoError(t, err)
	names := func(ts []mcp.Tool) []string {
		out := make([]string, len(ts))
		for i, tool := range ts {
			out[i] = tool.Name
		}
		return out
	}
	require.Equal(t, []string{"import_catalog", "navigate_sort_results", "sort_items"}, names(tools))
	require.Equal(t, []string{"navigate_sort_results", "sort_items"}, names(NewImportToolFilter(false).FilterTools(context.Background(), tools)))
	require.Len(t, NewImportToolFilter(true).FilterTools(context.Background(), tools), 3)
	require.Equal(t, names(tools), reg.Names())

	got, ok := reg.Get("sort_items")
	require.True(t, ok)
	require.Contains(t, got.Description, "navigate_sort_results")
	_, ok = reg.Get("open_workbook")
	require.False(t, ok)
}
