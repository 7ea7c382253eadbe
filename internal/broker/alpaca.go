package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"optrader/internal/domain"
	"optrader/internal/occ"
)

// pollInterval is how often a submitted order's status is re-checked while
// waiting for a terminal state.
const pollInterval = 500 * time.Millisecond

// AlpacaBackend routes orders to the Alpaca brokerage API. Submit blocks
// until the order reaches a terminal status or the configured timeout
// elapses; a timeout attempts a best-effort cancel and reports
// domain.ErrBackendTimeout.
type AlpacaBackend struct {
	client  *alpaca.Client
	timeout time.Duration
	log     *slog.Logger
}

var _ Backend = (*AlpacaBackend)(nil)

// NewAlpacaBackend returns a backend for the given credentials. baseURL
// selects paper or live trading; empty means the SDK default.
func NewAlpacaBackend(apiKey, apiSecret, baseURL string, timeout time.Duration, log *slog.Logger) *AlpacaBackend {
	return &AlpacaBackend{
		client: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		}),
		timeout: timeout,
		log:     log.With("backend", "alpaca"),
	}
}

// Name implements Backend.
func (b *AlpacaBackend) Name() string { return "alpaca" }

// Submit implements Backend.
func (b *AlpacaBackend) Submit(ctx context.Context, order *domain.Order) (Confirmation, error) {
	qty := decimal.NewFromInt(order.Qty)
	req := alpaca.PlaceOrderRequest{
		Symbol:      order.Symbol,
		Qty:         &qty,
		Side:        alpaca.Side(order.Side),
		Type:        alpaca.OrderType(order.Type),
		TimeInForce: alpaca.Day,
	}
	if order.LimitPrice != nil {
		lp := decimal.NewFromFloat(*order.LimitPrice)
		req.LimitPrice = &lp
	}

	placed, err := b.client.PlaceOrder(req)
	if err != nil {
		return Confirmation{}, fmt.Errorf("placing order for %s: %v: %w",
			order.Symbol, err, domain.ErrBackendRejected)
	}
	b.log.Info("order placed", "order", order.ID, "broker_order", placed.ID,
		"symbol", order.Symbol, "side", order.Side, "qty", order.Qty)

	return b.awaitTerminal(ctx, placed.ID)
}

// awaitTerminal polls the order until it settles. Timeouts cancel the order
// at the brokerage before reporting failure so no fill can land later.
func (b *AlpacaBackend) awaitTerminal(ctx context.Context, brokerID string) (Confirmation, error) {
	deadline := time.NewTimer(b.timeout)
	defer deadline.Stop()
	tick := time.NewTicker(pollInterval)
	defer tick.Stop()

	for {
		cur, err := b.client.GetOrder(brokerID)
		if err != nil {
			b.log.Warn("order status poll failed", "broker_order", brokerID, "error", err)
		} else {
			switch cur.Status {
			case "filled":
				price := 0.0
				if cur.FilledAvgPrice != nil {
					price, _ = cur.FilledAvgPrice.Float64()
				}
				filledAt := time.Now().UTC()
				if cur.FilledAt != nil {
					filledAt = cur.FilledAt.UTC()
				}
				return Confirmation{
					Status:    domain.OrderStatusFilled,
					BrokerID:  brokerID,
					FillPrice: price,
					FilledAt:  filledAt,
				}, nil
			case "canceled", "expired":
				return Confirmation{Status: domain.OrderStatusCancelled, BrokerID: brokerID}, nil
			case "rejected", "stopped", "suspended":
				return Confirmation{}, fmt.Errorf("order %s: brokerage reported %s: %w",
					brokerID, cur.Status, domain.ErrBackendRejected)
			}
		}

		select {
		case <-ctx.Done():
			b.cancelQuietly(brokerID)
			return Confirmation{}, fmt.Errorf("order %s: %v: %w", brokerID, ctx.Err(), domain.ErrBackendTimeout)
		case <-deadline.C:
			b.cancelQuietly(brokerID)
			return Confirmation{}, fmt.Errorf("order %s: no terminal status within %s: %w",
				brokerID, b.timeout, domain.ErrBackendTimeout)
		case <-tick.C:
		}
	}
}

func (b *AlpacaBackend) cancelQuietly(brokerID string) {
	if err := b.client.CancelOrder(brokerID); err != nil {
		b.log.Warn("cancel after timeout failed", "broker_order", brokerID, "error", err)
	}
}

// Cancel implements Backend.
func (b *AlpacaBackend) Cancel(ctx context.Context, order *domain.Order) error {
	if order.BrokerID == "" {
		return fmt.Errorf("order %s has no brokerage ID", order.ID)
	}
	if err := b.client.CancelOrder(order.BrokerID); err != nil {
		return fmt.Errorf("cancelling order %s: %w", order.BrokerID, err)
	}
	return nil
}

// Account returns the brokerage account snapshot. Only the real backend can
// answer this; the simulator's account lives in the local portfolio.
func (b *AlpacaBackend) Account(ctx context.Context) (*domain.AccountInfo, error) {
	acct, err := b.client.GetAccount()
	if err != nil {
		return nil, fmt.Errorf("fetching account: %w", err)
	}
	cash, _ := acct.Cash.Float64()
	equity, _ := acct.Equity.Float64()
	bp, _ := acct.BuyingPower.Float64()
	pv, _ := acct.PortfolioValue.Float64()
	return &domain.AccountInfo{
		Cash:           cash,
		Equity:         equity,
		BuyingPower:    bp,
		PortfolioValue: pv,
	}, nil
}

// Positions returns the open positions held at the brokerage, mapped into
// domain positions. Option symbols are decoded to fill contract fields.
func (b *AlpacaBackend) Positions(ctx context.Context) ([]domain.Position, error) {
	raw, err := b.client.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("fetching positions: %w", err)
	}
	out := make([]domain.Position, 0, len(raw))
	for _, rp := range raw {
		qty := rp.Qty.IntPart()
		avg, _ := rp.AvgEntryPrice.Float64()
		pos := domain.Position{
			Symbol:        rp.Symbol,
			Qty:           qty,
			AvgEntryPrice: avg,
			Kind:          domain.AssetEquity,
		}
		if c, err := occ.Decode(rp.Symbol); err == nil {
			pos.Kind = domain.AssetOption
			pos.Underlying = c.Underlying
			pos.Expiration = c.Expiration.Format("2006-01-02")
			pos.Strike = c.Strike
			pos.OptionType = c.Type
		}
		out = append(out, pos)
	}
	return out, nil
}
