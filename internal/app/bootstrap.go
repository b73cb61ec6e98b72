package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/CyanTarantula/trend-pulse/internal/cli"
	"github.com/CyanTarantula/trend-pulse/internal/config"
	"github.com/CyanTarantula/trend-pulse/internal/embedding"
	"github.com/CyanTarantula/trend-pulse/internal/logging"
	"github.com/CyanTarantula/trend-pulse/internal/topic"
)

// parseFlags returns the exit code to use when parsing stops the command.
func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

// loadRuntime loads the env file, the config and the logger.
func loadRuntime(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, bool) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, zerolog.Nop(), false
	}

	logger, err := logging.New(logging.Options{
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return nil, zerolog.Nop(), false
	}
	return cfg, logger, true
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// buildExtractor picks the topic extractor once for the whole command.
func buildExtractor(ctx context.Context, cfg *config.Config, logger zerolog.Logger) topic.Extractor {
	embedder, err := embedding.New(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("embedding provider setup failed")
		embedder = nil
	}
	return topic.New(ctx, embedder, topic.Options{EnglishOnly: cfg.TopicEnglishOnly}, logger)
}
