// Package cli implements the optrader command line: order entry, portfolio
// reporting, quote lookup, and the foreground monitor loop. Commands operate
// directly on the engine against the local portfolio files.
package cli

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/subcommands"

	"optrader/internal/broker"
	"optrader/internal/config"
	"optrader/internal/domain"
	"optrader/internal/engine"
	"optrader/internal/quote"
	"optrader/internal/store"
	"optrader/internal/util"
)

// Register the subcommands. A main package calls Register, then Execute on
// the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(subcommands.HelpCommand(), "")
	c.Register(subcommands.FlagsCommand(), "")

	c.Register(&buyCmd{}, "trading")
	c.Register(&sellCmd{}, "trading")
	c.Register(&cancelCmd{}, "trading")

	c.Register(&accountCmd{}, "reporting")
	c.Register(&positionsCmd{}, "reporting")
	c.Register(&ordersCmd{}, "reporting")
	c.Register(&historyCmd{}, "reporting")
	c.Register(&quoteCmd{}, "reporting")

	c.Register(&monitorCmd{}, "monitoring")
}

// Global flags shared by every command.
var (
	configPath = flag.String("config", "", "Path to the YAML config file. Empty uses defaults and env vars.")
	modeFlag   = flag.String("mode", "", "Trading mode override: real or simulated.")
)

// env bundles everything a command needs, built once per invocation.
type env struct {
	cfg     *config.Config
	engine  *engine.Engine
	pf      *domain.Portfolio
	backend broker.Backend
	quotes  quote.Source
	journal *store.SQLiteJournal
	snaps   *store.ParquetSnapshots
	log     *slog.Logger
}

// buildEnv loads configuration and wires the store, quote source, backend,
// and engine for the selected mode.
func buildEnv() (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Default()
	}
	if *modeFlag != "" {
		cfg.Trading.Mode = domain.Mode(*modeFlag)
		if !cfg.Trading.Mode.Valid() {
			return nil, fmt.Errorf("mode %q: must be %q or %q", *modeFlag, domain.ModeReal, domain.ModeSimulated)
		}
	}
	log := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	hasCreds := cfg.Alpaca.APIKey != "" && cfg.Alpaca.APISecret != ""
	if cfg.Trading.Mode == domain.ModeReal && !hasCreds {
		return nil, fmt.Errorf("real mode requires Alpaca credentials (APCA_API_KEY_ID / APCA_API_SECRET_KEY)")
	}

	var quotes quote.Source
	if hasCreds {
		quotes = quote.NewAlpacaSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
	} else {
		// Offline simulation: options priced by the model, equities need
		// injected prices.
		log.Warn("no market-data credentials, using model quotes")
		quotes = quote.NewModelSource(quote.NewStaticSource(nil))
	}

	var backend broker.Backend
	if cfg.Trading.Mode == domain.ModeReal {
		backend = broker.NewAlpacaBackend(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret,
			cfg.Alpaca.BaseURL, time.Duration(cfg.Trading.OrderTimeoutSecs)*time.Second, log)
	} else {
		backend = broker.NewSimBackend(quotes, log)
	}

	files := store.NewFileStore(cfg.Storage.PortfolioDir, cfg.Trading.InitialCash)
	journal, err := store.NewSQLiteJournal(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("opening fill journal: %w", err)
	}

	e := engine.New(files, backend, quotes, journal, engine.Options{
		Mode:       cfg.Trading.Mode,
		AllowShort: cfg.Trading.AllowShort,
	}, log)

	pf, err := files.Load(cfg.Trading.Mode)
	if err != nil {
		journal.Close()
		return nil, fmt.Errorf("loading portfolio: %w", err)
	}

	return &env{
		cfg:     cfg,
		engine:  e,
		pf:      pf,
		backend: backend,
		quotes:  quotes,
		journal: journal,
		snaps:   store.NewParquetSnapshots(cfg.Storage.DataDir),
		log:     log,
	}, nil
}

func (e *env) Close() {
	if e.journal != nil {
		e.journal.Close()
	}
}

// fail prints an error and returns the failure exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return subcommands.ExitFailure
}
