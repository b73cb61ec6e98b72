package app

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/CyanTarantula/trend-pulse/internal/cli"
	"github.com/CyanTarantula/trend-pulse/internal/db"
	"github.com/CyanTarantula/trend-pulse/internal/embedding"
)

func runHealth(args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Second, "Database ping timeout")
	checkEmbedding := fs.Bool("embedding", true, "Also probe the configured embedding provider")

	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, logger, ok := loadRuntime(envLoader)
	if !ok {
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("health check failed")
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		return 1
	}
	defer pool.Close()

	logger.Info().
		Str("driver", pool.Driver()).
		Dur("timeout", *timeout).
		Msg("database health check passed")
	fmt.Println("ok: database ping successful")

	if !*checkEmbedding {
		return 0
	}

	embedder, err := embedding.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding setup failed: %v\n", err)
		return 1
	}
	if embedder == nil {
		fmt.Println("ok: no embedding provider configured, heuristic topics")
		return 0
	}
	if err := embedding.Probe(ctx, embedder); err != nil {
		logger.Warn().Err(err).Str("embedder", embedder.Name()).Msg("embedding probe failed")
		fmt.Fprintf(os.Stderr, "Embedding probe failed: %v\n", err)
		return 1
	}
	fmt.Printf("ok: embedding provider %s reachable\n", embedder.Name())
	return 0
}
