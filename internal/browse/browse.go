// Package browse handles sort requests end to end: it validates parameters,
// runs the store query, paginates the groups and composes the reply.
package browse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vinodismyname/itemsort/config"
	"github.com/vinodismyname/itemsort/internal/compose"
	"github.com/vinodismyname/itemsort/internal/inventory"
	"github.com/vinodismyname/itemsort/internal/items"
	"github.com/vinodismyname/itemsort/internal/paginate"
	"github.com/vinodismyname/itemsort/internal/sortexpr"
	"github.com/vinodismyname/itemsort/pkg/boterr"
	"github.com/vinodismyname/itemsort/pkg/navigation"
	"github.com/vinodismyname/itemsort/pkg/validation"
)

// Store runs one sort query and streams its groups.
type Store interface {
	Aggregate(ctx context.Context, p items.FilterParams) (paginate.GroupStream, error)
}

// Service answers sort commands and the controls attached to their replies.
type Service struct {
	store     Store
	resolver  sortexpr.Resolver
	inventory inventory.Source
	acc       paginate.Accumulator
}

// Option configures a Service.
type Option func(*Service)

// WithInventory enables character filtering.
func WithInventory(src inventory.Source) Option { return func(s *Service) { s.inventory = src } }

// WithAccumulator overrides the page limits.
func WithAccumulator(a paginate.Accumulator) Option { return func(s *Service) { s.acc = a } }

// New returns a Service reading from store.
func New(store Store, resolver sortexpr.Resolver, opts ...Option) *Service {
	s := &Service{store: store, resolver: resolver, acc: paginate.NewAccumulator()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request is a sort command as typed by the user.
type Request struct {
	ItemType      string
	Formula       string
	WeaponElement string
	MinLevel      *int
	MaxLevel      *int
	Ascending     bool
	CharacterID   string
}

// Params resolves a raw request. An empty ItemType is kept so the caller can
// offer the type picker instead.
func (s *Service) Params(req Request) (items.FilterParams, error) {
	var p items.FilterParams
	if strings.TrimSpace(req.ItemType) != "" {
		t, ok := items.ParseItemType(req.ItemType)
		if !ok {
			return p, boterr.Newf(boterr.Validation, "`%s` is not a sortable item type.", req.ItemType)
		}
		p.ItemType = t
	}
	expr, err := s.resolver.Resolve(req.Formula)
	if err != nil {
		return p, boterr.Newf(boterr.Validation, "The sort expression `%s` could not be understood: %s.", strings.TrimSpace(req.Formula), describeResolveError(err))
	}
	p.SortExpression = expr
	if req.WeaponElement != "" {
		el, ok := sortexpr.UnaliasElement(req.WeaponElement)
		if !ok {
			return p, boterr.Newf(boterr.Validation, "`%s` is not a weapon element.", req.WeaponElement)
		}
		p.WeaponElement = el
	}
	p.MinLevel, p.MaxLevel = req.MinLevel, req.MaxLevel
	p.Ascending = req.Ascending
	p.CharacterID = strings.TrimSpace(req.CharacterID)
	return p, nil
}

func describeResolveError(err error) string {
	switch {
	case errors.Is(err, sortexpr.ErrEmptyFormula):
		return "it is empty"
	case errors.Is(err, sortexpr.ErrUnknownStat):
		return "it names an unknown stat"
	case errors.Is(err, sortexpr.ErrBadCoefficient):
		return "a multiplier is not a number"
	case errors.Is(err, sortexpr.ErrCoefficientRange):
		return fmt.Sprintf("multipliers must be between %v and %.0f", sortexpr.MinCoefficient, sortexpr.MaxCoefficient)
	case errors.Is(err, sortexpr.ErrZeroExpression):
		return "its terms cancel out"
	}
	return "it is malformed"
}

// Sort renders one page of results for p.
func (s *Service) Sort(ctx context.Context, p items.FilterParams) (compose.Payload, error) {
	if msg := validation.ValidateParams(p); msg != "" {
		return compose.Payload{}, validationError(msg)
	}
	if err := s.resolveCharacter(ctx, &p); err != nil {
		return compose.Payload{}, err
	}

	stream, err := s.store.Aggregate(ctx, p)
	if err != nil {
		return compose.Payload{}, storeError(ctx, err)
	}
	defer func() {
		if cerr := stream.Close(context.WithoutCancel(ctx)); cerr != nil {
			zerolog.Ctx(ctx).Warn().Err(cerr).Msg("closing group stream")
		}
	}()

	result, err := s.acc.Accumulate(ctx, stream, p)
	if err != nil {
		return compose.Payload{}, storeError(ctx, err)
	}
	controls, err := navigation.Controls(p.Cursor, result, p.ExcludedTags)
	if err != nil {
		return compose.Payload{}, boterr.Wrap(boterr.Internal, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("item_type", string(p.ItemType)).
		Str("sort", p.SortExpression.Label).
		Bool("exhausted", result.Exhausted).
		Int("controls", len(controls)).
		Msg("sort page rendered")

	return compose.Page(p, result, controls), nil
}

// Navigate serves a page button. Filters other than the cursor and excluded
// tags come from the message the button is attached to.
func (s *Service) Navigate(ctx context.Context, customID, title, summary string) (compose.Payload, error) {
	cur, err := navigation.Decode(customID)
	if err != nil {
		if errors.Is(err, navigation.ErrUnknownTag) {
			return compose.Payload{}, boterr.Wrap(boterr.UnknownTag, err)
		}
		return compose.Payload{}, boterr.Wrap(boterr.CursorInvalid, err)
	}
	p, err := s.fromMessage(title, summary)
	if err != nil {
		return compose.Payload{}, err
	}
	cur.Apply(&p)
	return s.Sort(ctx, p)
}

// SelectTags restarts browsing from the first page with a new exclusion set.
func (s *Service) SelectTags(ctx context.Context, values []string, title, summary string) (compose.Payload, error) {
	p, err := s.fromMessage(title, summary)
	if err != nil {
		return compose.Payload{}, err
	}
	p.ExcludedTags = items.NewTagSet()
	for _, v := range values {
		p.ExcludedTags[items.Tag(v)] = struct{}{}
	}
	return s.Sort(ctx, p)
}

// ShowType serves a type picker button.
func (s *Service) ShowType(ctx context.Context, customID, title, summary string) (compose.Payload, error) {
	t, err := navigation.DecodeShowResults(customID)
	if err != nil {
		return compose.Payload{}, boterr.Wrap(boterr.CursorInvalid, err)
	}
	p, err := compose.ParseSummary(title, summary, s.resolver)
	if err != nil {
		return compose.Payload{}, boterr.Wrap(boterr.CursorInvalid, err)
	}
	p.ItemType = t
	return s.Sort(ctx, p)
}

// Picker composes the type chooser for a sort without an item type.
func (s *Service) Picker(p items.FilterParams, types []items.ItemType) compose.Picker {
	return compose.TypePicker(p, types)
}

func (s *Service) fromMessage(title, summary string) (items.FilterParams, error) {
	p, err := compose.ParseSummary(title, summary, s.resolver)
	if err != nil {
		return p, boterr.Wrap(boterr.CursorInvalid, err)
	}
	if p.ItemType == "" {
		return p, boterr.Wrap(boterr.CursorInvalid, fmt.Errorf("message %q names no item type", title))
	}
	return p, nil
}

// resolveCharacter restricts p to the character's items. The character level
// becomes the max level unless one was given.
func (s *Service) resolveCharacter(ctx context.Context, p *items.FilterParams) error {
	if p.CharacterID == "" {
		return nil
	}
	if s.inventory == nil {
		return boterr.New(boterr.Validation, "Character lookups are not available right now.")
	}
	inv, err := s.inventory.CharacterInventory(ctx, p.CharacterID)
	if err != nil {
		var be *boterr.Error
		if errors.As(err, &be) {
			return err
		}
		return boterr.Wrap(boterr.FetchFailed, err)
	}
	p.OwnedTitles = inv.Titles()
	if p.MaxLevel == nil {
		p.MaxLevel = items.IntPtr(min(inv.Level, config.DefaultMaxLevel))
	}
	return nil
}

func validationError(msg string) error {
	code, text, ok := strings.Cut(msg, ": ")
	if !ok {
		return boterr.New(boterr.Validation, msg)
	}
	c := boterr.Code(code)
	if c != boterr.UnknownTag {
		c = boterr.Validation
	}
	return boterr.New(c, capitalizeFirst(text)+".")
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func storeError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return boterr.Wrap(boterr.Timeout, err)
	}
	zerolog.Ctx(ctx).Error().Err(err).Msg("sort query failed")
	return boterr.Wrap(boterr.StoreFailed, err)
}
