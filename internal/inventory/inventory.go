// Package inventory looks up a character's level and owned items from the
// public character page and caches the result for a few minutes.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vinodismyname/itemsort/config"
	"github.com/vinodismyname/itemsort/pkg/boterr"
	"github.com/vinodismyname/itemsort/pkg/validation"
	"github.com/vinodismyname/itemsort/pkg/version"
)

// Inventory is what a character page reveals about its owner.
type Inventory struct {
	Level int
	Items []string
}

// Titles returns the owned item names, never nil.
func (inv Inventory) Titles() []string {
	if inv.Items == nil {
		return []string{}
	}
	return inv.Items
}

// Source resolves a character id to its inventory.
type Source interface {
	CharacterInventory(ctx context.Context, id string) (Inventory, error)
}

// FetchGate bounds concurrent page fetches (backed by runtime.Controller).
type FetchGate interface {
	AcquireFetch(ctx context.Context) error
	ReleaseFetch()
}

// errRetryable marks failures worth another attempt.
var errRetryable = errors.New("retryable")

// Fetcher downloads and parses character pages.
type Fetcher struct {
	client     *http.Client
	pageURL    string
	timeout    time.Duration
	retries    int
	retryDelay time.Duration
	gate       FetchGate
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option { return func(f *Fetcher) { f.client = c } }

// WithGate bounds concurrent fetches.
func WithGate(g FetchGate) Option { return func(f *Fetcher) { f.gate = g } }

// WithRetry sets the retry count and the fixed delay between attempts.
func WithRetry(retries int, delay time.Duration) Option {
	return func(f *Fetcher) { f.retries, f.retryDelay = retries, delay }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option { return func(f *Fetcher) { f.timeout = d } }

// NewFetcher returns a Fetcher for pages at pageURL followed by the character id.
func NewFetcher(pageURL string, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:     http.DefaultClient,
		pageURL:    pageURL,
		timeout:    config.DefaultCharacterFetchTimeout,
		retries:    config.DefaultCharacterFetchRetries,
		retryDelay: config.DefaultCharacterRetryDelay,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CharacterInventory fetches and parses the page of character id.
func (f *Fetcher) CharacterInventory(ctx context.Context, id string) (Inventory, error) {
	body, err := f.Page(ctx, id)
	if err != nil {
		return Inventory{}, err
	}
	inv, err := Parse(strings.NewReader(body))
	if errors.Is(err, ErrNoLevel) {
		return Inventory{}, boterr.Newf(boterr.CharacterNotFound, "Character ID `%s` was not found.", id)
	}
	if err != nil {
		return Inventory{}, boterr.Wrap(boterr.FetchFailed, err)
	}
	return inv, nil
}

// Page returns the raw character page. A failed round of retries is followed
// by one more round before giving up.
func (f *Fetcher) Page(ctx context.Context, id string) (string, error) {
	if !validation.CharacterIDPattern.MatchString(id) {
		return "", boterr.New(boterr.Validation, "Character IDs must be between 2 and 12 digits long.")
	}
	if f.gate != nil {
		if err := f.gate.AcquireFetch(ctx); err != nil {
			return "", boterr.Wrap(boterr.BusyResource, err)
		}
		defer f.gate.ReleaseFetch()
	}

	body, err := f.fetchWithRetry(ctx, id)
	if err == nil {
		return body, nil
	}
	if ctx.Err() != nil {
		return "", boterr.Wrap(boterr.Timeout, ctx.Err())
	}
	zerolog.Ctx(ctx).Warn().Err(err).Str("character_id", id).Msg("character page request failed, resending once")

	body, err = f.fetchWithRetry(ctx, id)
	if err != nil {
		return "", boterr.Wrap(boterr.FetchFailed, err)
	}
	return body, nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, id string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(f.retryDelay):
			}
		}
		body, err := f.fetch(ctx, id)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !errors.Is(err, errRetryable) {
			break
		}
	}
	return "", lastErr
}

func (f *Fetcher) fetch(ctx context.Context, id string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, f.pageURL+url.QueryEscape(id), nil)
	if err != nil {
		return "", fmt.Errorf("inventory: build request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("inventory: get: %w: %w", errRetryable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		err := fmt.Errorf("inventory: unexpected status %d", resp.StatusCode)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusRequestTimeout {
			return "", fmt.Errorf("%w: %w", errRetryable, err)
		}
		return "", err
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("inventory: read body: %w: %w", errRetryable, err)
	}
	return string(b), nil
}

// Cached serves inventories from a TTL cache in front of a Source.
type Cached struct {
	source Source
	cache  *TTLCache[Inventory]
}

// NewCached wraps source with cache.
func NewCached(source Source, cache *TTLCache[Inventory]) *Cached {
	return &Cached{source: source, cache: cache}
}

// CharacterInventory implements Source.
func (c *Cached) CharacterInventory(ctx context.Context, id string) (Inventory, error) {
	return c.cache.GetOrCompute(ctx, id, func(ctx context.Context) (Inventory, error) {
		return c.source.CharacterInventory(ctx, id)
	})
}

var levelPattern = regexp.MustCompile(`Level: ([0-9]{1,3})\s`)

func parseLevel(text string) (int, bool) {
	m := levelPattern.FindStringSubmatch(text + "\n")
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}
