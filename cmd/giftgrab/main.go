package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/grabgifts/giftgrab/internal/config"
	"github.com/grabgifts/giftgrab/internal/repository/jsonstore"
	"github.com/grabgifts/giftgrab/internal/retailers"
	"github.com/grabgifts/giftgrab/internal/services/content"
	"github.com/grabgifts/giftgrab/internal/services/ingest"
	"github.com/grabgifts/giftgrab/internal/services/pipeline"
	"github.com/grabgifts/giftgrab/internal/services/report"
	"github.com/grabgifts/giftgrab/internal/services/roundups"
	"github.com/grabgifts/giftgrab/internal/services/scheduler"
	"github.com/grabgifts/giftgrab/internal/services/selection"
	"github.com/grabgifts/giftgrab/internal/site"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

func main() {
	// A .env file is optional; real environments set variables directly.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "update":
		err = runUpdate(ctx, logger, cfg, os.Args[2:])
	case "roundups":
		err = runRoundups(logger, cfg, os.Args[2:])
	case "check":
		err = runCheck(logger, cfg, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: giftgrab <command> [flags]

commands:
  update    fetch sources, merge the catalog, publish articles, build the site
  roundups  generate roundup guides and rebuild the site
  check     validate the generated site and data health`)
}

func runUpdate(ctx context.Context, logger *slog.Logger, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("update", flag.ExitOnError)
	itemCount := flags.Int("item-count", cfg.Catalog.ItemCount, "listings to request per source")
	if err := flags.Parse(args); err != nil {
		return err
	}

	store, err := jsonstore.New(logger, cfg.DataDir)
	if err != nil {
		return err
	}

	adapters := buildAdapters(logger, cfg)
	ingestSvc := ingest.New(logger, store, ingest.Options{
		CooldownWindow:    cfg.Catalog.CooldownWindow(),
		CooldownRetention: cfg.Catalog.CooldownRetention(),
		MinCatalogSize:    cfg.Catalog.MinCatalogSize,
	})
	sched := scheduler.New(logger, store, content.NewGenerator(logger), scheduler.Options{
		GuideCadence: cfg.Catalog.GuideCadence(),
		Weights:      selection.DefaultWeights,
	})
	builder := site.NewBuilder(logger, cfg.Site, cfg.OutputDir)

	svc := pipeline.New(logger, store, adapters, ingestSvc, sched, builder)
	return svc.Update(ctx, *itemCount, time.Now().UTC())
}

// buildAdapters assembles the source list in the fixed fetch order: curated
// feeds first, then eBay, then Amazon. Sources without credentials are
// disabled with a single warning.
func buildAdapters(logger *slog.Logger, cfg *config.Config) []retailers.Adapter {
	var adapters []retailers.Adapter

	statics, err := retailers.DiscoverStatic(logger, cfg.FeedsDir)
	if err != nil {
		logger.Warn("failed to load curated feeds", "error", err)
	}
	for _, adapter := range statics {
		adapters = append(adapters, adapter)
	}

	ebay, err := retailers.NewEbay(logger, nil, retailers.EbayCredentials{
		ClientID:     cfg.Ebay.ClientID,
		ClientSecret: cfg.Ebay.ClientSecret,
	})
	if err != nil {
		logger.Warn("ebay source disabled", "error", err)
	} else {
		adapters = append(adapters, ebay)
	}

	amazon, err := retailers.NewAmazon(logger, nil, retailers.AmazonCredentials{
		AccessKey:    cfg.Amazon.AccessKey,
		SecretKey:    cfg.Amazon.SecretKey,
		AssociateTag: cfg.Amazon.AssociateTag,
	})
	if err != nil {
		logger.Warn("amazon source disabled", "error", err)
	} else {
		adapters = append(adapters, amazon)
	}
	return adapters
}

func runRoundups(logger *slog.Logger, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("roundups", flag.ExitOnError)
	limit := flags.Int("limit", 15, "guides to generate")
	output := flags.String("output", cfg.OutputDir, "site output directory")
	if err := flags.Parse(args); err != nil {
		return err
	}

	store, err := jsonstore.New(logger, cfg.DataDir)
	if err != nil {
		return err
	}

	svc := roundups.New(logger, store, roundups.Options{MinCatalogSize: cfg.Catalog.MinCatalogSize})
	guides, err := svc.GenerateGuides(*limit, time.Now().UTC())
	if err != nil {
		return err
	}
	logger.Info("roundup guides generated", "count", len(guides))

	builder := site.NewBuilder(logger, cfg.Site, *output)
	articles, err := store.ListPublishedArticles(800)
	if err != nil {
		return err
	}
	allGuides, err := store.LoadGuides()
	if err != nil {
		return err
	}
	return builder.Build(articles, allGuides, time.Now().UTC())
}

func runCheck(logger *slog.Logger, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("check", flag.ExitOnError)
	output := flags.String("output", cfg.OutputDir, "site output directory")
	if err := flags.Parse(args); err != nil {
		return err
	}

	store, err := jsonstore.New(logger, cfg.DataDir)
	if err != nil {
		return err
	}
	products, err := store.LoadProducts()
	if err != nil {
		return err
	}
	guides, err := store.LoadGuides()
	if err != nil {
		return err
	}

	fmt.Println(report.SummarizeInventory(products).Render())
	fmt.Println(report.SummarizeGuides(guides, 10).Render())

	checker := site.NewChecker(logger, *output, cfg.Catalog.MinCatalogSize)
	problems := checker.Check(products, guides)
	if len(problems) > 0 {
		for _, problem := range problems {
			fmt.Fprintln(os.Stderr, "FAIL: "+problem)
		}
		return errors.New("site check failed")
	}
	fmt.Println("site check passed")
	return nil
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelWarn,
			}),
		)
	default:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return log
}
