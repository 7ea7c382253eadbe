package broker

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"optrader/internal/domain"
	"optrader/internal/quote"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func limitOrder(side domain.Side, limit float64) *domain.Order {
	return &domain.Order{
		ID:         "ord-1",
		Symbol:     "AAPL250620C00150000",
		Side:       side,
		Qty:        1,
		Type:       domain.OrderTypeLimit,
		LimitPrice: &limit,
		Status:     domain.OrderStatusPending,
	}
}

func TestSimBackendMarketFill(t *testing.T) {
	src := quote.NewStaticSource(map[string]float64{"AAPL250620C00150000": 2.5})
	b := NewSimBackend(src, discard())
	b.now = func() time.Time { return time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC) }

	conf, err := b.Submit(context.Background(), &domain.Order{
		ID: "ord-1", Symbol: "AAPL250620C00150000", Side: domain.SideBuy,
		Qty: 1, Type: domain.OrderTypeMarket, Status: domain.OrderStatusPending,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if conf.Status != domain.OrderStatusFilled {
		t.Fatalf("Status = %s, want filled", conf.Status)
	}
	if conf.FillPrice != 2.5 {
		t.Errorf("FillPrice = %v, want 2.5", conf.FillPrice)
	}
	if conf.FilledAt.IsZero() {
		t.Error("FilledAt not set")
	}
}

func TestSimBackendLimitOrders(t *testing.T) {
	tests := []struct {
		name      string
		side      domain.Side
		limit     float64
		quote     float64
		wantFill  bool
		wantPrice float64
	}{
		{"buy limit above quote fills at limit", domain.SideBuy, 3.0, 2.5, true, 3.0},
		{"buy limit at quote fills", domain.SideBuy, 2.5, 2.5, true, 2.5},
		{"buy limit below quote rests", domain.SideBuy, 2.0, 2.5, false, 0},
		{"sell limit below quote fills at limit", domain.SideSell, 2.0, 2.5, true, 2.0},
		{"sell limit above quote rests", domain.SideSell, 3.0, 2.5, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := quote.NewStaticSource(map[string]float64{"AAPL250620C00150000": tt.quote})
			b := NewSimBackend(src, discard())

			conf, err := b.Submit(context.Background(), limitOrder(tt.side, tt.limit))
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if tt.wantFill {
				if conf.Status != domain.OrderStatusFilled {
					t.Fatalf("Status = %s, want filled", conf.Status)
				}
				if conf.FillPrice != tt.wantPrice {
					t.Errorf("FillPrice = %v, want %v", conf.FillPrice, tt.wantPrice)
				}
			} else if conf.Status != domain.OrderStatusPending {
				t.Fatalf("Status = %s, want pending", conf.Status)
			}
		})
	}
}

func TestSimBackendQuoteUnavailable(t *testing.T) {
	b := NewSimBackend(quote.NewStaticSource(nil), discard())

	_, err := b.Submit(context.Background(), &domain.Order{
		ID: "ord-1", Symbol: "XYZ", Side: domain.SideBuy,
		Qty: 1, Type: domain.OrderTypeMarket,
	})
	if !errors.Is(err, domain.ErrQuoteUnavailable) {
		t.Fatalf("err = %v, want ErrQuoteUnavailable", err)
	}
}

func TestCrossed(t *testing.T) {
	if !Crossed(domain.SideBuy, 2.5, 2.5) {
		t.Error("buy limit at quote should cross")
	}
	if Crossed(domain.SideBuy, 2.4, 2.5) {
		t.Error("buy limit below quote should not cross")
	}
	if !Crossed(domain.SideSell, 2.5, 2.6) {
		t.Error("sell limit below quote should cross")
	}
	if Crossed(domain.SideSell, 2.7, 2.6) {
		t.Error("sell limit above quote should not cross")
	}
}
