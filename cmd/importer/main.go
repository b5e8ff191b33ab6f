package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/vinodismyname/itemsort/config"
	"github.com/vinodismyname/itemsort/internal/catalog"
	"github.com/vinodismyname/itemsort/internal/security"
	"github.com/vinodismyname/itemsort/internal/store/memstore"
	"github.com/vinodismyname/itemsort/internal/store/mongostore"
	"github.com/vinodismyname/itemsort/pkg/boterr"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		sheet   string
		dryRun  bool
		timeout time.Duration
	)
	flag.StringVar(&sheet, "sheet", "", "Sheet to read (defaults to the first)")
	flag.BoolVar(&dryRun, "dry-run", false, "Parse into an in-memory store without touching MongoDB")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "Overall import timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] workbook.xlsx...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := zlog.With().Str("service", "itemsort-importer").Logger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}
	guard, err := security.NewGuard(cfg.ImportDirs)
	if err == nil {
		err = guard.ValidateConfig()
	}
	if err != nil {
		logger.Error().Err(err).Msg("set ITEMSORT_IMPORT_DIRS to the directories holding workbooks")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(logger.WithContext(context.Background()), timeout)
	importer := catalog.NewImporter(guard, sheet)
	var total int
	if dryRun {
		total, err = importAll(ctx, importer, memstore.New(), flag.Args())
	} else {
		total, err = run(ctx, cfg, importer, flag.Args())
	}
	cancel()
	if err != nil {
		logger.Error().Err(err).Str("code", string(boterr.CodeOf(err))).Msg("import failed")
		os.Exit(1)
	}
	logger.Info().Int("records", total).Int("files", flag.NArg()).Bool("dry_run", dryRun).Msg("import complete")
}

func run(ctx context.Context, cfg config.Config, importer *catalog.Importer, paths []string) (int, error) {
	store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	if err != nil {
		return 0, err
	}
	defer func() { _ = store.Close(context.Background()) }()
	if err := store.EnsureIndexes(ctx); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("ensure indexes")
	}

	return importAll(ctx, importer, store, paths)
}

func importAll(ctx context.Context, importer *catalog.Importer, w catalog.Writer, paths []string) (int, error) {
	total := 0
	for _, path := range paths {
		n, err := importer.Import(ctx, path, w)
		total += n
		if err != nil {
			return total, fmt.Errorf("%s: %w", path, err)
		}
	}
	return total, nil
}
