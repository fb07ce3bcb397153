package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/panelnotes/notesink/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath  string
		vaultDir    string
		apiBase     string
		apiToken    string
		apiUA       string
		apiTimeout  time.Duration
		pageSize    int
		maxPages    int
		maxAttempts int
		stateDir    string
		stateClear  bool
		concurrency int
		dryRun      bool
		enablePDF   bool
		verbose     bool
	)

	flag.StringVar(&configPath, "config", "", "Optional YAML/JSON config file; explicit flags win over file values")
	flag.StringVar(&vaultDir, "vault.dir", os.Getenv("NOTESINK_VAULT_DIR"), "Vault directory to write Markdown notes into")
	flag.StringVar(&apiBase, "api.base", os.Getenv("NOTESINK_API_BASE"), "Notes API base URL")
	flag.StringVar(&apiToken, "api.token", os.Getenv("NOTESINK_TOKEN"), "Bearer token for the notes API")
	flag.StringVar(&apiUA, "api.ua", app.DefaultUserAgent, "Custom User-Agent for API requests")
	flag.DurationVar(&apiTimeout, "api.timeout", app.DefaultTimeout, "Per-request timeout for API calls")
	flag.IntVar(&pageSize, "page.size", app.DefaultPageSize, "Documents requested per API page")
	flag.IntVar(&maxPages, "max.pages", app.DefaultMaxPages, "Maximum API pages to follow before stopping")
	flag.IntVar(&maxAttempts, "max.attempts", app.DefaultMaxAttempts, "Attempts per API request including the first")
	flag.StringVar(&stateDir, "state.dir", app.DefaultStateDir, "Directory for per-document sync state; empty disables skipping")
	flag.BoolVar(&stateClear, "state.clear", false, "Clear sync state before the run")
	flag.IntVar(&concurrency, "concurrency", app.DefaultConcurrency, "Concurrent document conversions")
	flag.BoolVar(&dryRun, "dry-run", false, "List what would be written without touching the vault")
	flag.BoolVar(&enablePDF, "enable.pdf", false, "Also export each note as a PDF next to the Markdown file")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		VaultDir:          vaultDir,
		APIBaseURL:        apiBase,
		APIToken:          apiToken,
		APIUserAgent:      apiUA,
		PerRequestTimeout: apiTimeout,
		PageSize:          pageSize,
		MaxPages:          maxPages,
		MaxAttempts:       maxAttempts,
		StateDir:          stateDir,
		StateClear:        stateClear,
		Concurrency:       concurrency,
		DryRun:            dryRun,
		EnablePDF:         enablePDF,
		Verbose:           verbose,
	}

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config file")
			os.Exit(2)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	if cfg.Verbose && !verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		// Exit code policy: nonzero only when the API yielded no documents
		// at all. Everything else completes with warnings.
		if err == app.ErrNoDocuments {
			os.Exit(2)
		}
		os.Exit(0)
	}
}

func run(cfg app.Config) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}
