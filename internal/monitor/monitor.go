// Package monitor runs the periodic mark-to-market loop: gather quotes for
// every symbol the portfolio cares about, revalue, persist an equity
// snapshot, and push the valuation to subscribers.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"optrader/internal/domain"
	"optrader/internal/engine"
	"optrader/internal/quote"
	"optrader/internal/store"
	"optrader/internal/util"
)

const (
	quoteAttempts   = 3
	quoteRetryDelay = 500 * time.Millisecond
)

// Options configures the loop.
type Options struct {
	// Interval between ticks.
	Interval time.Duration

	// RateLimitPerMin caps quote fetches across a tick.
	RateLimitPerMin int

	// OnValuation, when set, receives every completed valuation. Used to
	// feed the dashboard websocket hub.
	OnValuation func(domain.Valuation)
}

// Monitor drives the valuation loop for one portfolio.
type Monitor struct {
	engine  *engine.Engine
	pf      *domain.Portfolio
	quotes  quote.Source
	snaps   store.SnapshotStore // optional
	limiter *util.RateLimiter
	opts    Options
	log     *slog.Logger
}

// New creates a monitor. snaps may be nil to disable equity history.
func New(e *engine.Engine, pf *domain.Portfolio, qs quote.Source, snaps store.SnapshotStore, opts Options, log *slog.Logger) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.RateLimitPerMin <= 0 {
		opts.RateLimitPerMin = 200
	}
	return &Monitor{
		engine:  e,
		pf:      pf,
		quotes:  qs,
		snaps:   snaps,
		limiter: util.NewRateLimiter(opts.RateLimitPerMin),
		opts:    opts,
		log:     log.With("component", "monitor"),
	}
}

// Run ticks until the context is cancelled. The first pass runs immediately.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info("monitor started", "interval", m.opts.Interval)
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	m.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			m.log.Info("monitor stopped")
			return nil
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick runs one valuation pass. Failures are logged and skipped; the loop
// itself never dies from a bad tick.
func (m *Monitor) tick(ctx context.Context) {
	symbols := m.watchSymbols()
	quotes := make(map[string]domain.Quote, len(symbols))
	for _, sym := range symbols {
		if err := m.limiter.Wait(ctx); err != nil {
			return
		}
		var q domain.Quote
		err := util.Retry(ctx, quoteAttempts, quoteRetryDelay, func() error {
			var err error
			q, err = m.quotes.GetQuote(ctx, sym)
			return err
		})
		if err != nil {
			m.log.Warn("quote fetch failed, skipping symbol", "symbol", sym, "error", err)
			continue
		}
		quotes[sym] = q
	}

	val, err := m.engine.MarkToMarket(ctx, m.pf, quotes)
	if err != nil {
		m.log.Error("mark-to-market failed", "error", err)
		return
	}

	if m.snaps != nil {
		snap := store.EquitySnapshot{
			Timestamp:    val.Time,
			Mode:         m.engine.Mode(),
			Cash:         val.Cash,
			Equity:       val.Equity,
			UnrealizedPL: val.UnrealizedPL,
			Positions:    len(val.Positions) + len(val.Missing),
		}
		if err := m.snaps.Append(snap); err != nil {
			m.log.Warn("snapshot append failed", "error", err)
		}
	}
	if m.opts.OnValuation != nil {
		m.opts.OnValuation(val)
	}
	m.log.Debug("tick complete", "equity", val.Equity,
		"quoted", len(val.Positions), "missing", len(val.Missing))
}

// watchSymbols returns the symbols needing quotes this tick: open positions
// plus resting limit orders.
func (m *Monitor) watchSymbols() []string {
	snap := m.engine.Snapshot(m.pf)
	seen := make(map[string]bool)
	var out []string
	for i := range snap.Positions {
		if sym := snap.Positions[i].Symbol; !seen[sym] {
			seen[sym] = true
			out = append(out, sym)
		}
	}
	for _, ord := range snap.PendingOrders() {
		if !seen[ord.Symbol] {
			seen[ord.Symbol] = true
			out = append(out, ord.Symbol)
		}
	}
	return out
}
