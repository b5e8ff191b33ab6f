// Package paginate consumes a stream of sort groups and renders as many as fit
// in one message.
package paginate

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/vinodismyname/itemsort/config"
	"github.com/vinodismyname/itemsort/internal/items"
)

// Accumulator renders groups until the character budget or the group limit is hit.
type Accumulator struct {
	// Budget is the maximum rendered length in characters.
	Budget int
	// ResultLimit matches the pipeline's $limit. One slot is held back so a
	// further page is only offered when it would not be empty.
	ResultLimit int
}

// NewAccumulator returns an Accumulator with the configured limits.
func NewAccumulator() Accumulator {
	return Accumulator{Budget: config.MaxDescriptionLength, ResultLimit: config.QueryResultLimit}
}

// Accumulate renders with the configured limits.
func Accumulate(ctx context.Context, stream GroupStream, p items.FilterParams) (items.PageResult, error) {
	return NewAccumulator().Accumulate(ctx, stream, p)
}

// Accumulate pulls groups from stream one at a time. Groups fetched while
// browsing backward arrive nearest-first and are prepended so the page reads in
// the requested order either way. The returned text never exceeds Budget.
func (a Accumulator) Accumulate(ctx context.Context, stream GroupStream, p items.FilterParams) (items.PageResult, error) {
	group, err := stream.Next(ctx)
	if err != nil {
		return items.PageResult{}, fmt.Errorf("paginate: fetch group: %w", err)
	}

	var first, last *float64
	if group != nil {
		first = valuePtr(group.SortValue)
	}

	var (
		text     strings.Builder
		pending  string
		length   int
		consumed int
		backward = p.Backward()
	)
	// Prepending needs the pieces in fetch order.
	var pieces []string

	for group != nil && consumed < a.ResultLimit-1 {
		consumed++
		pending = RenderGroup(*group)
		n := utf8.RuneCountInString(pending)
		if length+n > a.Budget {
			break
		}
		length += n
		pieces = append(pieces, pending)
		last = valuePtr(group.SortValue)

		group, err = stream.Next(ctx)
		if err != nil {
			return items.PageResult{}, fmt.Errorf("paginate: fetch group: %w", err)
		}
	}
	if last == nil && group != nil {
		last = valuePtr(group.SortValue)
	}

	if backward {
		for i := len(pieces) - 1; i >= 0; i-- {
			text.WriteString(pieces[i])
		}
		first, last = last, first
	} else {
		for _, piece := range pieces {
			text.WriteString(piece)
		}
	}

	out := text.String()
	if out == "" && pending != "" {
		// The first group alone overflows; show as many whole entries as fit.
		out = Truncate(pending, a.Budget)
	}
	if out == "" {
		out = NoResults
	}

	return items.PageResult{
		Text:            out,
		FirstGroupValue: first,
		LastGroupValue:  last,
		Exhausted:       group == nil,
	}, nil
}

// Truncate cuts s at the last entry delimiter that leaves room for the ellipsis
// within budget characters. It returns "" when no delimiter fits.
func Truncate(s string, budget int) string {
	runes := []rune(s)
	limit := budget - utf8.RuneCountInString(Ellipsis)
	if limit < 0 {
		return ""
	}
	if limit > len(runes) {
		limit = len(runes)
	}
	head := string(runes[:limit])
	idx := strings.LastIndex(head, ItemDelimiter)
	if idx == -1 {
		return ""
	}
	return head[:idx] + Ellipsis
}

func valuePtr(v float64) *float64 { return &v }
