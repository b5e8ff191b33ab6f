package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vinodismyname/itemsort/internal/browse"
	"github.com/vinodismyname/itemsort/internal/catalog"
	"github.com/vinodismyname/itemsort/internal/compose"
	"github.com/vinodismyname/itemsort/internal/items"
	"github.com/vinodismyname/itemsort/pkg/boterr"
	"github.com/vinodismyname/itemsort/pkg/navigation"
)

// SortItemsInput mirrors the sort command options.
type SortItemsInput struct {
	ItemType       string `json:"item_type,omitempty" jsonschema_description:"Item type (weapon, cape, helm, belt, necklace, ring, trinket, bracer). Empty returns the type picker."`
	SortExpression string `json:"sort_expression" jsonschema:"required" jsonschema_description:"Stats to add up, e.g. 'str + 2*dex - crit'"`
	WeaponElement  string `json:"weapon_element,omitempty" jsonschema_description:"Only weapons of this element"`
	MinLevel       *int   `json:"min_level,omitempty" jsonschema_description:"Minimum item level (0-90)"`
	MaxLevel       *int   `json:"max_level,omitempty" jsonschema_description:"Maximum item level (0-90)"`
	Ascending      bool   `json:"ascending,omitempty" jsonschema_description:"Lowest values first"`
	CharacterID    string `json:"char_id,omitempty" jsonschema_description:"Only items in this character's inventory"`
}

// NavigateInput carries a control id together with the message it was taken
// from. Values holds the selected tags for the tag selection control.
type NavigateInput struct {
	CustomID string   `json:"custom_id" jsonschema:"required" jsonschema_description:"Control id from a previous sort result"`
	Title    string   `json:"title" jsonschema:"required" jsonschema_description:"Title of the result being navigated"`
	Summary  string   `json:"summary,omitempty" jsonschema_description:"Summary of the result being navigated"`
	Values   []string `json:"values,omitempty" jsonschema_description:"Tags to exclude when custom_id is sort-tag-selection"`
}

// ControlOutput is one follow-up action offered with a result.
type ControlOutput struct {
	Kind     string `json:"kind"`
	Label    string `json:"label"`
	CustomID string `json:"custom_id"`
}

// SortOutput is a rendered page, or the type picker when ItemTypes is set.
type SortOutput struct {
	Title        string          `json:"title"`
	Summary      string          `json:"summary"`
	Body         string          `json:"body,omitempty"`
	Controls     []ControlOutput `json:"controls"`
	ExcludedTags []string        `json:"excluded_tags,omitempty"`
	TagChoices   []string        `json:"tag_choices,omitempty"`
}

// ImportCatalogInput names a workbook inside an import directory.
type ImportCatalogInput struct {
	Path  string `json:"path" jsonschema:"required" jsonschema_description:"Path to an .xlsx or .xlsm workbook in an allowed import directory"`
	Sheet string `json:"sheet,omitempty" jsonschema_description:"Sheet to read; defaults to the first"`
}

// ImportCatalogOutput reports how many records were stored.
type ImportCatalogOutput struct {
	Path     string `json:"path"`
	Inserted int    `json:"inserted"`
}

// SortTools serves the sort tools. Importer and Writer are optional.
type SortTools struct {
	Service  *browse.Service
	Importer *catalog.Importer
	Writer   catalog.Writer
}

// RegisterSortTools adds the sort tools to s and reg.
func RegisterSortTools(s *server.MCPServer, reg *Registry, t *SortTools) {
	sortTool := mcp.NewTool(
		"sort_items",
		mcp.WithDescription("Sort game items by a stat expression. Items sharing a value are grouped, and results are paged within a message-size budget. Returns controls whose custom_id can be passed to navigate_sort_results. Errors: VALIDATION, UNKNOWN_TAG, CHARACTER_NOT_FOUND, FETCH_FAILED, STORE_FAILED, TIMEOUT."),
		mcp.WithInputSchema[SortItemsInput](),
		mcp.WithOutputSchema[SortOutput](),
	)
	s.AddTool(sortTool, mcp.NewTypedToolHandler(t.SortItems))
	reg.Register(sortTool)

	navTool := mcp.NewTool(
		"navigate_sort_results",
		mcp.WithDescription("Follow a control of a previous sort_items result: previous or next page, tag exclusion (custom_id sort-tag-selection with values), or an item type from the picker. Pass the title and summary of that result unchanged. Errors: CURSOR_INVALID, UNKNOWN_TAG, STORE_FAILED, TIMEOUT."),
		mcp.WithInputSchema[NavigateInput](),
		mcp.WithOutputSchema[SortOutput](),
	)
	s.AddTool(navTool, mcp.NewTypedToolHandler(t.Navigate))
	reg.Register(navTool)

	if t.Importer != nil && t.Writer != nil {
		importTool := mcp.NewTool(
			"import_catalog",
			mcp.WithDescription("Import item records from an Excel workbook into the item store. Columns: title, category, type, level, elements, damage, bonuses, resists, tags. Errors: VALIDATION, IMPORT_FAILED."),
			mcp.WithInputSchema[ImportCatalogInput](),
			mcp.WithOutputSchema[ImportCatalogOutput](),
		)
		s.AddTool(importTool, mcp.NewTypedToolHandler(t.ImportCatalog))
		reg.Register(importTool)
	}
}

// SortItems handles sort_items.
func (t *SortTools) SortItems(ctx context.Context, _ mcp.CallToolRequest, in SortItemsInput) (*mcp.CallToolResult, error) {
	p, err := t.Service.Params(browse.Request{
		ItemType:      in.ItemType,
		Formula:       in.SortExpression,
		WeaponElement: in.WeaponElement,
		MinLevel:      in.MinLevel,
		MaxLevel:      in.MaxLevel,
		Ascending:     in.Ascending,
		CharacterID:   in.CharacterID,
	})
	if err != nil {
		return toolError(err), nil
	}
	if p.ItemType == "" {
		return pickerResult(t.Service.Picker(p, items.SortableItemTypes)), nil
	}
	payload, err := t.Service.Sort(ctx, p)
	if err != nil {
		return toolError(err), nil
	}
	return pageResult(payload), nil
}

// Navigate handles navigate_sort_results.
func (t *SortTools) Navigate(ctx context.Context, _ mcp.CallToolRequest, in NavigateInput) (*mcp.CallToolResult, error) {
	var (
		payload compose.Payload
		err     error
	)
	switch navigation.KindOf(in.CustomID) {
	case navigation.KindPrevPage, navigation.KindNextPage:
		payload, err = t.Service.Navigate(ctx, in.CustomID, in.Title, in.Summary)
	case navigation.KindTagSelection:
		payload, err = t.Service.SelectTags(ctx, in.Values, in.Title, in.Summary)
	case navigation.KindShowResults:
		payload, err = t.Service.ShowType(ctx, in.CustomID, in.Title, in.Summary)
	default:
		err = boterr.Wrap(boterr.CursorInvalid, fmt.Errorf("%w: %q", navigation.ErrUnknownKind, in.CustomID))
	}
	if err != nil {
		return toolError(err), nil
	}
	return pageResult(payload), nil
}

// ImportCatalog handles import_catalog.
func (t *SortTools) ImportCatalog(ctx context.Context, _ mcp.CallToolRequest, in ImportCatalogInput) (*mcp.CallToolResult, error) {
	im := t.Importer
	if in.Sheet != "" {
		im = im.WithSheet(in.Sheet)
	}
	n, err := im.Import(ctx, in.Path, t.Writer)
	if err != nil {
		return toolError(err), nil
	}
	out := ImportCatalogOutput{Path: in.Path, Inserted: n}
	summary := fmt.Sprintf("imported %d records from %s", n, in.Path)
	res := mcp.NewToolResultStructured(out, summary)
	res.Content = []mcp.Content{mcp.NewTextContent(summary)}
	return res, nil
}

func pageResult(p compose.Payload) *mcp.CallToolResult {
	out := SortOutput{
		Title:    p.Title,
		Summary:  p.Summary,
		Body:     p.Body,
		Controls: controlsOutput(p.Controls),
	}
	for _, o := range p.TagSelect.Options {
		out.TagChoices = append(out.TagChoices, o.Value)
		if o.Default {
			out.ExcludedTags = append(out.ExcludedTags, o.Value)
		}
	}
	text := strings.TrimSpace(strings.Join([]string{p.Title, p.Summary, p.Body}, "\n\n"))
	res := mcp.NewToolResultStructured(out, p.Title)
	res.Content = []mcp.Content{mcp.NewTextContent(text)}
	return res
}

func pickerResult(pk compose.Picker) *mcp.CallToolResult {
	out := SortOutput{Title: pk.Title, Summary: pk.Summary, Controls: []ControlOutput{}}
	for _, row := range pk.Rows {
		out.Controls = append(out.Controls, controlsOutput(row)...)
	}
	res := mcp.NewToolResultStructured(out, pk.Title)
	res.Content = []mcp.Content{mcp.NewTextContent(pk.Title + "\n\n" + pk.Summary)}
	return res
}

func controlsOutput(cs []navigation.Control) []ControlOutput {
	out := make([]ControlOutput, len(cs))
	for i, c := range cs {
		out[i] = ControlOutput{Kind: string(c.Kind), Label: c.Label, CustomID: c.CustomID}
	}
	return out
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(string(boterr.CodeOf(err)) + ": " + boterr.UserMessage(err))
}
