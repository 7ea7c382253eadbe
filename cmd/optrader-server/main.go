// Command optrader-server runs the dashboard JSON API and the monitor loop
// for one trading mode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"optrader/internal/broker"
	"optrader/internal/config"
	"optrader/internal/domain"
	"optrader/internal/engine"
	"optrader/internal/httpapi"
	"optrader/internal/monitor"
	"optrader/internal/quote"
	"optrader/internal/store"
	"optrader/internal/util"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML config file. Empty uses defaults and env vars.")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Default()
	}

	log := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(log)

	hasCreds := cfg.Alpaca.APIKey != "" && cfg.Alpaca.APISecret != ""
	if cfg.Trading.Mode == domain.ModeReal && !hasCreds {
		return errors.New("real mode requires Alpaca credentials (APCA_API_KEY_ID / APCA_API_SECRET_KEY)")
	}

	var quotes quote.Source
	if hasCreds {
		quotes = quote.NewAlpacaSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
	} else {
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
		return fmt.Errorf("opening fill journal: %w", err)
	}
	defer journal.Close()
	snaps := store.NewParquetSnapshots(cfg.Storage.DataDir)

	eng := engine.New(files, backend, quotes, journal, engine.Options{
		Mode:       cfg.Trading.Mode,
		AllowShort: cfg.Trading.AllowShort,
	}, log)

	pf, err := files.Load(cfg.Trading.Mode)
	if err != nil {
		return fmt.Errorf("loading portfolio: %w", err)
	}

	api := httpapi.NewServer(eng, pf, quotes, journal, snaps, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mon := monitor.New(eng, pf, quotes, snaps, monitor.Options{
		Interval:        time.Duration(cfg.Monitor.IntervalSecs) * time.Second,
		RateLimitPerMin: cfg.Monitor.RateLimitPerMin,
		OnValuation:     api.BroadcastValuation,
	}, log)
	go mon.Run(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr, "mode", cfg.Trading.Mode, "backend", backend.Name())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
