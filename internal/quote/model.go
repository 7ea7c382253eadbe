package quote

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"optrader/internal/domain"
	"optrader/internal/occ"
)

// Compile-time interface check.
var _ Source = (*ModelSource)(nil)

// ModelSource prices option contracts with a crude intrinsic-plus-time-value
// model when no live option feed is configured: intrinsic value at the
// underlying's last price plus S·σ·√T time value, scaled by bounded random
// noise. Equity symbols are delegated to the underlying source. This is a
// monitoring aid, not a pricing model.
type ModelSource struct {
	underlying Source  // source for underlying/equity prices
	volatility float64 // annualized, default 0.3

	rnd func() float64 // uniform [0, 1)
	now func() time.Time
}

// NewModelSource creates a ModelSource over the given underlying price
// source.
func NewModelSource(underlying Source) *ModelSource {
	return &ModelSource{
		underlying: underlying,
		volatility: 0.3,
		rnd:        rand.Float64,
		now:        time.Now,
	}
}

// GetQuote prices an option symbol from the model, or passes an equity
// symbol through to the underlying source.
func (s *ModelSource) GetQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	contract, err := occ.Decode(symbol)
	if err != nil {
		return s.underlying.GetQuote(ctx, symbol)
	}

	uq, err := s.underlying.GetQuote(ctx, contract.Underlying)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("underlying %s: %w", contract.Underlying, domain.ErrQuoteUnavailable)
	}

	now := s.now()
	yearsToExpiry := contract.Expiration.Sub(now).Hours() / 24 / 365
	if yearsToExpiry < 0 {
		yearsToExpiry = 0
	}

	var intrinsic float64
	switch contract.Type {
	case domain.OptionCall:
		intrinsic = math.Max(0, uq.Price-contract.Strike)
	case domain.OptionPut:
		intrinsic = math.Max(0, contract.Strike-uq.Price)
	}

	timeValue := uq.Price * s.volatility * math.Sqrt(yearsToExpiry)

	noise := 0.9 + 0.2*s.rnd()

	price := math.Round((intrinsic+timeValue)*noise*100) / 100
	return domain.Quote{Symbol: symbol, Price: price, Timestamp: now}, nil
}
