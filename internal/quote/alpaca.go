package quote

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"optrader/internal/domain"
	"optrader/internal/occ"
)

// Compile-time interface check.
var _ Source = (*AlpacaSource)(nil)

// AlpacaSource fetches last-trade prices from the Alpaca market-data API,
// using the options endpoints for OCC symbols and the stock endpoints for
// everything else.
type AlpacaSource struct {
	client *marketdata.Client
}

// NewAlpacaSource creates an AlpacaSource with the given credentials. An
// empty dataURL uses the SDK default endpoint.
func NewAlpacaSource(apiKey, apiSecret, dataURL string) *AlpacaSource {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaSource{client: marketdata.NewClient(opts)}
}

// GetQuote returns the latest trade price for symbol. API failures are
// reported as domain.ErrQuoteUnavailable so the monitor loop can skip the
// symbol for the tick.
func (s *AlpacaSource) GetQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return domain.Quote{}, err
	}

	if occ.IsOption(symbol) {
		trade, err := s.client.GetLatestOptionTrade(symbol, marketdata.GetLatestOptionTradeRequest{})
		if err != nil {
			return domain.Quote{}, fmt.Errorf("%s: %v: %w", symbol, err, domain.ErrQuoteUnavailable)
		}
		if trade == nil {
			return domain.Quote{}, fmt.Errorf("%s: no option trade: %w", symbol, domain.ErrQuoteUnavailable)
		}
		return domain.Quote{Symbol: symbol, Price: trade.Price, Timestamp: trade.Timestamp}, nil
	}

	trade, err := s.client.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return domain.Quote{}, fmt.Errorf("%s: %v: %w", symbol, err, domain.ErrQuoteUnavailable)
	}
	if trade == nil {
		return domain.Quote{}, fmt.Errorf("%s: no trade: %w", symbol, domain.ErrQuoteUnavailable)
	}
	return domain.Quote{Symbol: symbol, Price: trade.Price, Timestamp: trade.Timestamp}, nil
}
