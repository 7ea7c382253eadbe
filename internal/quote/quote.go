// Package quote defines the price source abstraction and provides
// implementations backed by the Alpaca market-data API, a static in-memory
// table, and a simple option pricing model for offline simulation.
package quote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"optrader/internal/domain"
)

// Source supplies the current price for an underlying or an option contract.
type Source interface {
	// GetQuote returns the last observed price for symbol. It fails with an
	// error matching domain.ErrQuoteUnavailable when no price can be
	// obtained.
	GetQuote(ctx context.Context, symbol string) (domain.Quote, error)
}

// Compile-time interface check.
var _ Source = (*StaticSource)(nil)

// StaticSource serves quotes from an in-memory table. It is used by tests
// and by offline simulation where prices are injected externally.
type StaticSource struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// NewStaticSource creates a StaticSource seeded with the given prices.
func NewStaticSource(prices map[string]float64) *StaticSource {
	s := &StaticSource{prices: make(map[string]float64, len(prices))}
	for sym, p := range prices {
		s.prices[sym] = p
	}
	return s
}

// Set updates the price for symbol.
func (s *StaticSource) Set(symbol string, price float64) {
	s.mu.Lock()
	s.prices[symbol] = price
	s.mu.Unlock()
}

// Delete removes the price for symbol.
func (s *StaticSource) Delete(symbol string) {
	s.mu.Lock()
	delete(s.prices, symbol)
	s.mu.Unlock()
}

// GetQuote returns the stored price for symbol.
func (s *StaticSource) GetQuote(_ context.Context, symbol string) (domain.Quote, error) {
	s.mu.RLock()
	price, ok := s.prices[symbol]
	s.mu.RUnlock()
	if !ok {
		return domain.Quote{}, fmt.Errorf("%s: %w", symbol, domain.ErrQuoteUnavailable)
	}
	return domain.Quote{Symbol: symbol, Price: price, Timestamp: time.Now()}, nil
}
