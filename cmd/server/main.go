package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/vinodismyname/itemsort/config"
	"github.com/vinodismyname/itemsort/internal/browse"
	"github.com/vinodismyname/itemsort/internal/catalog"
	"github.com/vinodismyname/itemsort/internal/discord"
	"github.com/vinodismyname/itemsort/internal/inventory"
	"github.com/vinodismyname/itemsort/internal/registry"
	"github.com/vinodismyname/itemsort/internal/runtime"
	"github.com/vinodismyname/itemsort/internal/security"
	"github.com/vinodismyname/itemsort/internal/sortexpr"
	"github.com/vinodismyname/itemsort/internal/store/memstore"
	"github.com/vinodismyname/itemsort/internal/store/mongostore"
	"github.com/vinodismyname/itemsort/internal/telemetry"
	"github.com/vinodismyname/itemsort/pkg/version"
)

// itemStore is what both front ends need from the item collection.
type itemStore interface {
	browse.Store
	catalog.Writer
	Close(ctx context.Context) error
}

type memoryStore struct{ *memstore.Store }

func (memoryStore) Close(context.Context) error { return nil }

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		useStdio        bool
		useDiscord      bool
		useMemory       bool
		seedPath        string
		shutdownTimeout time.Duration
	)
	flag.BoolVar(&useStdio, "stdio", false, "Serve MCP tools over stdio")
	flag.BoolVar(&useDiscord, "discord", false, "Connect the Discord bot")
	flag.BoolVar(&useMemory, "memory", false, "Use an in-memory item store instead of MongoDB")
	flag.StringVar(&seedPath, "seed", "", "Workbook imported into the store at startup")
	flag.DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "Graceful shutdown timeout")
	flag.Parse()

	logger := zlog.With().Str("service", "itemsort").Logger()
	if !useStdio && !useDiscord {
		fmt.Fprintln(os.Stderr, "no front end selected; use -stdio and/or -discord")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(logger.WithContext(context.Background()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, useMemory)
	if err != nil {
		logger.Error().Err(err).Msg("item store unavailable")
		os.Exit(1)
	}

	guard, err := security.NewGuard(cfg.ImportDirs)
	if err != nil {
		logger.Error().Err(err).Msg("invalid import directories")
		os.Exit(1)
	}
	importer := catalog.NewImporter(guard, "")
	if seedPath != "" {
		if _, err := importer.Import(ctx, seedPath, store); err != nil {
			logger.Error().Err(err).Str("path", seedPath).Msg("seed import failed")
			os.Exit(1)
		}
	}

	limits := runtime.NewLimits(cfg.MaxConcurrentRequests, cfg.MaxConcurrentFetches)
	if cfg.OperationTimeout > 0 {
		limits.OperationTimeout = cfg.OperationTimeout
	}
	controller := runtime.NewController(limits)

	invCache := inventory.NewTTLCache[inventory.Inventory](cfg.InventoryTTL, config.DefaultInventoryCleanup, nil)
	invCache.SetComputeTimeout(limits.OperationTimeout)
	invCache.Start()
	fetcher := inventory.NewFetcher(cfg.CharacterPageURL, inventory.WithGate(controller))
	svc := browse.New(store, sortexpr.NewResolver(), browse.WithInventory(inventory.NewCached(fetcher, invCache)))

	hooks := telemetry.NewHooks(logger)

	logger.Info().
		Str("version", version.Version()).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_concurrent_fetches", limits.MaxConcurrentFetches).
		Dur("operation_timeout", limits.OperationTimeout).
		Bool("stdio", useStdio).
		Bool("discord", useDiscord).
		Bool("memory", useMemory).
		Bool("import_enabled", cfg.EnableImport && guard.ValidateConfig() == nil).
		Msg("itemsort configured")

	var bot *discord.Bot
	if useDiscord {
		if cfg.DiscordToken == "" {
			logger.Error().Msg("ITEMSORT_DISCORD_TOKEN is required for -discord")
			os.Exit(1)
		}
		handler := discord.NewHandler(svc, controller, hooks, logger)
		bot, err = discord.NewBot(cfg.DiscordToken, cfg.DiscordGuildID, handler, logger)
		if err == nil {
			err = bot.Open()
		}
		if err != nil {
			logger.Error().Err(err).Msg("discord bot failed to start")
			os.Exit(1)
		}
		hooks.OnServerStart("discord")
	}

	if useStdio {
		tools := &registry.SortTools{Service: svc}
		if cfg.EnableImport && guard.ValidateConfig() == nil {
			tools.Importer, tools.Writer = importer, store
		}
		reg := registry.New()
		srv := newMCPServer(controller, hooks, cfg.EnableImport, reg, tools)
		logger.Info().Strs("tools", reg.Names()).Msg("mcp tools registered")
		hooks.OnServerStart("stdio")
		if err := server.ServeStdio(srv); err != nil {
			// stderr keeps transport errors out of the protocol stream
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		}
		hooks.OnServerStop("stdio")
		stop()
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if bot != nil {
		if err := bot.Close(); err != nil {
			logger.Warn().Err(err).Msg("discord close")
		}
		hooks.OnServerStop("discord")
	}
	if err := invCache.Close(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("inventory cache close")
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("item store close")
	}
}

func openStore(ctx context.Context, cfg config.Config, memory bool) (itemStore, error) {
	if memory {
		return memoryStore{memstore.New()}, nil
	}
	s, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("ensure indexes")
	}
	return s, nil
}

func newMCPServer(controller *runtime.Controller, hooks *telemetry.Hooks, allowImport bool, reg *registry.Registry, tools *registry.SortTools) *server.MCPServer {
	filter := registry.NewImportToolFilter(allowImport)
	srv := server.NewMCPServer(
		"Item Sort Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(sessionHooks(hooks)),
		server.WithToolHandlerMiddleware(hooks.ToolMiddleware),
		server.WithToolHandlerMiddleware(runtime.NewMiddleware(controller).ToolMiddleware),
		server.WithToolFilter(func(ctx context.Context, ts []mcp.Tool) []mcp.Tool { return filter.FilterTools(ctx, ts) }),
	)
	registry.RegisterSortTools(srv, reg, tools)
	return srv
}

func sessionHooks(h *telemetry.Hooks) *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddOnRegisterSession(func(_ context.Context, session server.ClientSession) {
		h.OnSessionStart(session.SessionID())
	})
	hooks.AddOnUnregisterSession(func(_ context.Context, session server.ClientSession) {
		h.OnSessionEnd(session.SessionID())
	})
	return hooks
}
