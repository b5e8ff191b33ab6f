package config

import "time"

// Default runtime limits and guardrails for the item sort bot.
// They are referenced by internal/runtime, internal/paginate and internal/query,
// and the tunable ones can be overridden through Config.

const (
	// Concurrency
	DefaultMaxConcurrentRequests = 10
	DefaultMaxConcurrentFetches  = 4

	// Output budget: the character limit of a chat embed description.
	MaxDescriptionLength = 4096

	// QueryResultLimit caps the number of groups a single aggregation returns.
	QueryResultLimit = 15

	// Custom IDs of message components are capped by the platform.
	MaxCustomIDLength = 100

	// Level bounds offered by the sort command.
	DefaultMinLevel = 0
	DefaultMaxLevel = 90
)

const (
	// Timeouts
	DefaultOperationTimeout      = 10 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second

	// Character inventory lookups
	DefaultCharacterFetchTimeout = 3 * time.Second
	DefaultCharacterFetchRetries = 3
	DefaultCharacterRetryDelay   = 100 * time.Millisecond
	DefaultInventoryTTL          = 5 * time.Minute
	DefaultInventoryCleanup      = time.Minute
)
