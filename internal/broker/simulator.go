package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"optrader/internal/domain"
	"optrader/internal/quote"
)

// SimBackend fabricates fills locally from current quotes. Market orders fill
// immediately at the quote. Limit orders fill at the limit price when the
// limit is at-or-better than the quote, otherwise they rest pending and are
// re-checked by the engine on each mark-to-market pass.
type SimBackend struct {
	quotes quote.Source
	log    *slog.Logger
	now    func() time.Time
}

var _ Backend = (*SimBackend)(nil)

// NewSimBackend returns a simulator backed by the given quote source.
func NewSimBackend(quotes quote.Source, log *slog.Logger) *SimBackend {
	return &SimBackend{
		quotes: quotes,
		log:    log.With("backend", "simulator"),
		now:    time.Now,
	}
}

// Name implements Backend.
func (b *SimBackend) Name() string { return "simulator" }

// Submit implements Backend.
func (b *SimBackend) Submit(ctx context.Context, order *domain.Order) (Confirmation, error) {
	q, err := b.quotes.GetQuote(ctx, order.Symbol)
	if err != nil {
		return Confirmation{}, fmt.Errorf("simulator quote for %s: %w", order.Symbol, err)
	}

	if order.Type == domain.OrderTypeLimit {
		if !Crossed(order.Side, *order.LimitPrice, q.Price) {
			b.log.Info("limit order resting", "order", order.ID, "symbol", order.Symbol,
				"limit", *order.LimitPrice, "quote", q.Price)
			return Confirmation{Status: domain.OrderStatusPending}, nil
		}
		b.log.Info("limit order filled", "order", order.ID, "symbol", order.Symbol, "price", *order.LimitPrice)
		return Confirmation{
			Status:    domain.OrderStatusFilled,
			FillPrice: *order.LimitPrice,
			FilledAt:  b.now().UTC(),
		}, nil
	}

	b.log.Info("market order filled", "order", order.ID, "symbol", order.Symbol, "price", q.Price)
	return Confirmation{
		Status:    domain.OrderStatusFilled,
		FillPrice: q.Price,
		FilledAt:  b.now().UTC(),
	}, nil
}

// Cancel implements Backend. The simulator holds no server-side state; resting
// orders live in the portfolio, so cancellation is purely an engine concern.
func (b *SimBackend) Cancel(ctx context.Context, order *domain.Order) error {
	return nil
}

// Crossed reports whether a limit price is executable against the quote:
// a buy limit at or above it, a sell limit at or below it.
func Crossed(side domain.Side, limit, quotePrice float64) bool {
	if side == domain.SideBuy {
		return limit >= quotePrice
	}
	return limit <= quotePrice
}
