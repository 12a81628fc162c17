// Package main is the CLI entrypoint for innkeeper. It provides
// subcommands for running the bridge (run) and printing version
// information (version). The run command loads configuration, connects
// to the realm/world server and the Discord gateway, and handles
// graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/innkeeper-bridge/innkeeper/internal/config"
	"github.com/innkeeper-bridge/innkeeper/internal/orchestrator"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		if err := runBridge(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		runVersion()
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// printUsage prints the CLI usage information.
func printUsage() {
	fmt.Println("innkeeper — WoW chat bridge")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  innkeeper <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run       Connect to the realm and Discord, and relay chat")
	fmt.Println("  version   Print version information")
	fmt.Println("  help      Show this help message")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("  Config file:  innkeeper.toml (or set INNKEEPER_CONFIG_PATH)")
	fmt.Println("  Env prefix:   INNKEEPER_ (e.g. INNKEEPER_DISCORD_TOKEN)")
}

// runBridge starts the bridge: loads config, builds the orchestrator,
// and runs it until a shutdown signal arrives.
func runBridge() error {
	logger := setupLogger("info", "json")

	logger.Info("starting innkeeper",
		slog.String("version", version),
		slog.String("commit", commit),
	)

	cfgPath := configPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Reconfigure logger with loaded settings.
	logger = setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded", slog.String("path", cfgPath))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch := orchestrator.New(cfg, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- orch.Run(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("orchestrator stopped: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	select {
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			logger.Error("orchestrator shutdown error", slog.String("error", err.Error()))
		}
	case <-shutdownCtx.Done():
		logger.Warn("orchestrator did not stop within shutdown timeout")
	}

	logger.Info("innkeeper stopped")
	return nil
}

// runVersion prints version information and exits.
func runVersion() {
	fmt.Printf("innkeeper %s\n", version)
	fmt.Printf("  commit: %s\n", commit)
}

// configPath returns the config file path from INNKEEPER_CONFIG_PATH
// env var or the default "innkeeper.toml".
func configPath() string {
	if p := os.Getenv("INNKEEPER_CONFIG_PATH"); p != "" {
		return p
	}
	return "innkeeper.toml"
}

// setupLogger creates a slog.Logger with the given level and format.
func setupLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
