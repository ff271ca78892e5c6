// Command bloomctl loads key lists into a Bloom-filtered keyset and answers
// membership queries for its arguments, or for stdin lines when run without
// arguments.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/haukened/bloomset/internal/common/clock"
	"github.com/haukened/bloomset/internal/common/log"
	"github.com/haukened/bloomset/internal/config"
	"github.com/haukened/bloomset/internal/keyset"
	"github.com/haukened/bloomset/internal/keyset/bolt"
	"github.com/haukened/bloomset/internal/keyset/filter"
	"github.com/haukened/bloomset/internal/keyset/lru"
	"github.com/haukened/bloomset/internal/keyset/parsers"
)

const (
	version = "0.1.0-dev"
	appName = "bloomctl"
)

// Application holds the wired keyset and its resources.
type Application struct {
	config *config.AppConfig
	store  keyset.Store
	repo   keyset.Repository
	logger log.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}
	logger := log.GetLogger()
	defer func() { _ = logger.Sync() }()

	logger.Info(map[string]any{
		"app":        appName,
		"version":    version,
		"env":        cfg.Env,
		"strategy":   cfg.Strategy,
		"fp_rate":    cfg.FalsePositiveRate,
		"store_path": cfg.StorePath,
		"sources":    cfg.Sources,
	}, "Starting bloomctl")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Fatal(map[string]any{"error": err}, "Failed to build application")
	}
	defer app.Close()

	if err := app.Run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		logger.Error(map[string]any{"error": err}, "bloomctl failed")
		os.Exit(1)
	}
}

// buildApplication opens the store and wires cache, filter factory and
// repository. The caller must Close the application.
func buildApplication(cfg *config.AppConfig, logger log.Logger) (*Application, error) {
	store, err := bolt.New(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	factory, err := filter.NewFactory(filter.Options{
		FalsePositiveRate: cfg.FalsePositiveRate,
		NumberOfHashes:    cfg.NumberOfHashes,
		Strategy:          cfg.Strategy,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create filter factory: %w", err)
	}

	repo, err := keyset.NewRepository(keyset.Options{
		Store:   store,
		Cache:   cache,
		Factory: factory,
		Clock:   clock.RealClock{},
		Logger:  logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}

	return &Application{config: cfg, store: store, repo: repo, logger: logger}, nil
}

// Close releases the store.
func (app *Application) Close() {
	if err := app.store.Close(); err != nil {
		app.logger.Warn(map[string]any{"error": err}, "Error closing store")
	}
}

// Run loads the configured sources, then answers queries from args, or from
// in when args is empty, writing one result line per key to out.
func (app *Application) Run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	if len(app.config.Sources) > 0 {
		keys, err := loadSources(app.config.Sources, app.config.SourceFormat, app.logger)
		if err != nil {
			return err
		}
		if err := app.repo.Update(keys); err != nil {
			return fmt.Errorf("failed to update keyset: %w", err)
		}
	} else {
		app.logger.Warn(nil, "No sources configured; answering from the store alone")
	}

	w := bufio.NewWriter(out)
	defer w.Flush()

	if len(args) > 0 {
		for _, key := range args {
			if err := ctx.Err(); err != nil {
				return err
			}
			writeDecision(w, key, app.repo.Has(app.queryKey(key)))
		}
	} else {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := scanner.Text()
			if key == "" {
				continue
			}
			writeDecision(w, key, app.repo.Has(app.queryKey(key)))
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read queries: %w", err)
		}
	}

	s := app.repo.Stats()
	app.logger.Info(map[string]any{
		"keys":         s.Store.Keys,
		"bits":         s.Filter.BitSize,
		"hashes":       s.Filter.NumberOfHashes,
		"fill_ratio":   s.FillRatio,
		"estimated_fp": s.EstimatedFalsePositiveRate,
		"observed_fp":  s.ObservedFalsePositiveRate(),
		"filter_skips": s.FilterNegatives,
		"cache_hits":   s.CacheHits,
		"store_errors": s.StoreErrors,
	}, "Queries answered")
	return nil
}

// queryKey normalizes a query the way the source parser normalized keys.
// Hostnames that fail IDNA conversion are looked up as given.
func (app *Application) queryKey(key string) string {
	if app.config.SourceFormat != "hosts" {
		return key
	}
	if name, ok := parsers.CanonicalHostname(key); ok {
		return name
	}
	return key
}

func writeDecision(w io.Writer, key string, d keyset.Decision) {
	state := "absent"
	if d.Present {
		state = "present"
	}
	fmt.Fprintf(w, "%s\t%s\t%s\n", key, state, d.Source)
}

// loadSources parses every source file with the parser for format and
// returns the concatenated keys. Duplicates are removed by the repository.
func loadSources(paths []string, format string, logger log.Logger) ([]string, error) {
	parse := parsers.ParsePlainList
	if format == "hosts" {
		parse = parsers.ParseHostsFile
	}

	var keys []string
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open source %q: %w", path, err)
		}
		got, err := parse(f, path, logger)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse source %q: %w", path, err)
		}
		logger.Info(map[string]any{"source": path, "keys": len(got)}, "Source loaded")
		keys = append(keys, got...)
	}
	return keys, nil
}
