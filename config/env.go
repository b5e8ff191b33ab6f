package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration read from ITEMSORT_* environment variables.
type Config struct {
	MongoURI        string `env:"ITEMSORT_MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase   string `env:"ITEMSORT_MONGO_DB" envDefault:"dragonfable"`
	MongoCollection string `env:"ITEMSORT_MONGO_COLLECTION" envDefault:"items"`

	DiscordToken   string `env:"ITEMSORT_DISCORD_TOKEN"`
	DiscordGuildID string `env:"ITEMSORT_DISCORD_GUILD_ID"`

	CharacterPageURL string        `env:"ITEMSORT_CHARACTER_PAGE_URL" envDefault:"https://account.dragonfable.com/CharPage?id="`
	InventoryTTL     time.Duration `env:"ITEMSORT_INVENTORY_TTL" envDefault:"5m"`

	ImportDirs   []string `env:"ITEMSORT_IMPORT_DIRS" envSeparator:":"`
	EnableImport bool     `env:"ITEMSORT_ENABLE_IMPORT"`

	MaxConcurrentRequests int           `env:"ITEMSORT_MAX_CONCURRENT_REQUESTS" envDefault:"10"`
	MaxConcurrentFetches  int           `env:"ITEMSORT_MAX_CONCURRENT_FETCHES" envDefault:"4"`
	OperationTimeout      time.Duration `env:"ITEMSORT_OPERATION_TIMEOUT" envDefault:"10s"`
}

// Load parses Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
