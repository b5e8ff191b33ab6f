package registry

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ImportToolFilter hides catalog writing tools unless imports are enabled
// (ITEMSORT_ENABLE_IMPORT=true).
type ImportToolFilter struct {
	allowImports bool
}

// NewImportToolFilter returns a filter; allow comes from configuration.
func NewImportToolFilter(allow bool) *ImportToolFilter {
	return &ImportToolFilter{allowImports: allow}
}

// FilterTools drops tools prefixed import_ when imports are disabled.
func (f *ImportToolFilter) FilterTools(_ context.Context, tools []mcp.Tool) []mcp.Tool {
	if f.allowImports {
		return tools
	}
	out := make([]mcp.Tool, 0, len(tools))
	for _, t := range tools {
		if strings.HasPrefix(strings.ToLower(t.Name), "import_") {
			continue
		}
		out = append(out, t)
	}
	return out
}
