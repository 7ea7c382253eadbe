// Package engine implements the trading core: order validation, execution
// through a backend, fill application, and mark-to-market valuation. Every
// mutation follows the same commit discipline: clone the portfolio, mutate
// the clone, persist it, then swap it into the caller's pointer. A failed
// save leaves the caller's portfolio untouched.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"optrader/internal/broker"
	"optrader/internal/domain"
	"optrader/internal/occ"
	"optrader/internal/quote"
	"optrader/internal/store"
)

// OrderRequest carries the caller's order parameters. LimitPrice must be set
// for limit orders and nil for market orders.
type OrderRequest struct {
	Symbol     string
	Qty        int64
	Type       domain.OrderType
	LimitPrice *float64
}

// Options configures engine behavior.
type Options struct {
	Mode       domain.Mode
	AllowShort bool
}

// Engine coordinates the portfolio store, the execution backend, and the
// quote source for a single mode. All operations are serialized by an
// internal mutex; callers may share one engine across goroutines.
type Engine struct {
	mu      sync.Mutex
	store   store.PortfolioStore
	backend broker.Backend
	quotes  quote.Source
	journal store.FillJournal // optional
	opts    Options
	log     *slog.Logger

	now   func() time.Time
	newID func() string
}

// New creates an engine. journal may be nil to disable fill journaling.
func New(st store.PortfolioStore, be broker.Backend, qs quote.Source, journal store.FillJournal, opts Options, log *slog.Logger) *Engine {
	return &Engine{
		store:   st,
		backend: be,
		quotes:  qs,
		journal: journal,
		opts:    opts,
		log:     log.With("component", "engine", "mode", opts.Mode),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Mode returns the mode this engine trades in.
func (e *Engine) Mode() domain.Mode { return e.opts.Mode }

// Backend returns the execution backend name.
func (e *Engine) Backend() string { return e.backend.Name() }

// ----------------------------------------------------------------------------
// Order entry

// Buy validates and executes a buy order against the portfolio.
func (e *Engine) Buy(ctx context.Context, p *domain.Portfolio, req OrderRequest) (domain.Order, error) {
	return e.submit(ctx, p, domain.SideBuy, req)
}

// Sell validates and executes a sell order against the portfolio.
func (e *Engine) Sell(ctx context.Context, p *domain.Portfolio, req OrderRequest) (domain.Order, error) {
	return e.submit(ctx, p, domain.SideSell, req)
}

func (e *Engine) submit(ctx context.Context, p *domain.Portfolio, side domain.Side, req OrderRequest) (domain.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if req.Qty <= 0 {
		return domain.Order{}, fmt.Errorf("qty %d: %w", req.Qty, domain.ErrInvalidQuantity)
	}
	if req.Type == domain.OrderTypeLimit && req.LimitPrice == nil {
		return domain.Order{}, fmt.Errorf("%s %s: %w", req.Type, req.Symbol, domain.ErrMissingLimitPrice)
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	meta, err := classify(symbol)
	if err != nil {
		return domain.Order{}, err
	}

	if side == domain.SideSell && !e.opts.AllowShort {
		var held int64
		if pos := p.Position(symbol); pos != nil {
			held = pos.Qty
		}
		if held < req.Qty {
			return domain.Order{}, fmt.Errorf("sell %d %s, holding %d: %w",
				req.Qty, symbol, held, domain.ErrInsufficientPosition)
		}
	}

	if side == domain.SideBuy {
		worst, err := e.worstCasePrice(ctx, symbol, req)
		if err != nil {
			return domain.Order{}, err
		}
		cost := worst * float64(req.Qty) * meta.multiplier()
		if p.Cash-cost < 0 {
			return domain.Order{}, fmt.Errorf("need %.2f, cash %.2f: %w",
				cost, p.Cash, domain.ErrInsufficientFunds)
		}
	}

	order := domain.Order{
		ID:          e.newID(),
		Symbol:      symbol,
		Side:        side,
		Qty:         req.Qty,
		Type:        req.Type,
		LimitPrice:  copyFloat(req.LimitPrice),
		Status:      domain.OrderStatusPending,
		SubmittedAt: e.now().UTC(),
	}

	conf, err := e.backend.Submit(ctx, &order)
	if err != nil {
		if isBackendFailure(err) {
			order.Status = domain.OrderStatusRejected
			order.Reason = err.Error()
			if recErr := e.commitOrder(p, order); recErr != nil {
				e.log.Error("recording rejected order failed", "order", order.ID, "error", recErr)
			}
		}
		return order, err
	}
	order.BrokerID = conf.BrokerID

	switch conf.Status {
	case domain.OrderStatusFilled:
		c := p.Clone()
		tx := e.applyFill(c, &order, meta, conf.FillPrice, conf.FilledAt)
		if err := e.store.Save(c, e.opts.Mode); err != nil {
			return domain.Order{}, fmt.Errorf("persisting fill: %w", err)
		}
		*p = *c
		e.journalFill(ctx, tx)
		e.log.Info("order filled", "order", order.ID, "symbol", symbol, "side", side,
			"qty", req.Qty, "price", conf.FillPrice, "realized_pl", tx.RealizedPL)
		return order, nil

	case domain.OrderStatusCancelled:
		order.Status = domain.OrderStatusCancelled
		order.Reason = "cancelled by brokerage before fill"
		if err := e.commitOrder(p, order); err != nil {
			return domain.Order{}, err
		}
		return order, nil

	default: // resting limit order
		if err := e.commitOrder(p, order); err != nil {
			return domain.Order{}, err
		}
		e.log.Info("order resting", "order", order.ID, "symbol", symbol, "limit", *order.LimitPrice)
		return order, nil
	}
}

// worstCasePrice is the price used for the buy funds check: the limit price
// when one is set, otherwise the current quote.
func (e *Engine) worstCasePrice(ctx context.Context, symbol string, req OrderRequest) (float64, error) {
	if req.LimitPrice != nil {
		return *req.LimitPrice, nil
	}
	q, err := e.quotes.GetQuote(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("funds check for %s: %w", symbol, err)
	}
	return q.Price, nil
}

// commitOrder appends a single order record with no other state change.
func (e *Engine) commitOrder(p *domain.Portfolio, order domain.Order) error {
	c := p.Clone()
	c.Orders = append(c.Orders, order)
	if err := e.store.Save(c, e.opts.Mode); err != nil {
		return fmt.Errorf("persisting order: %w", err)
	}
	*p = *c
	return nil
}

// ----------------------------------------------------------------------------
// Cancellation

// Cancel cancels a pending order. Once a fill is durably recorded the order
// can no longer be cancelled and the fill wins.
func (e *Engine) Cancel(ctx context.Context, p *domain.Portfolio, orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ord := p.Order(orderID)
	if ord == nil {
		return fmt.Errorf("order %s: not found", orderID)
	}
	if ord.Status != domain.OrderStatusPending {
		return fmt.Errorf("order %s is %s: %w", orderID, ord.Status, domain.ErrOrderNotCancellable)
	}

	if err := e.backend.Cancel(ctx, ord); err != nil {
		return err
	}

	c := p.Clone()
	co := c.Order(orderID)
	co.Status = domain.OrderStatusCancelled
	if err := e.store.Save(c, e.opts.Mode); err != nil {
		return fmt.Errorf("persisting cancel: %w", err)
	}
	*p = *c
	e.log.Info("order cancelled", "order", orderID)
	return nil
}

// ----------------------------------------------------------------------------
// Mark to market

// MarkToMarket values the portfolio at the given quotes. In simulated mode it
// first re-checks resting limit orders against the quotes and fills any that
// have crossed; those fills are committed as their own isolated step before
// valuation. Positions without a quote this pass are reported in Missing and
// excluded from the totals.
func (e *Engine) MarkToMarket(ctx context.Context, p *domain.Portfolio, quotes map[string]domain.Quote) (domain.Valuation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.opts.Mode == domain.ModeSimulated {
		if err := e.refreshRestingOrders(ctx, p, quotes); err != nil {
			return domain.Valuation{}, err
		}
	}

	val := domain.Valuation{Time: e.now().UTC(), Cash: p.Cash}
	equity := p.Cash
	for i := range p.Positions {
		pos := p.Positions[i]
		q, ok := quotes[pos.Symbol]
		if !ok {
			val.Missing = append(val.Missing, pos.Symbol)
			continue
		}
		pv := domain.PositionValue{
			Position:     pos,
			LastPrice:    q.Price,
			MarketValue:  pos.MarketValue(q.Price),
			UnrealizedPL: pos.UnrealizedPL(q.Price),
		}
		val.Positions = append(val.Positions, pv)
		equity += pv.MarketValue
		val.UnrealizedPL += pv.UnrealizedPL
	}
	val.Equity = equity
	return val, nil
}

// refreshRestingOrders fills pending limit orders whose limit has crossed the
// current quote. All fills of one pass share a single commit.
func (e *Engine) refreshRestingOrders(ctx context.Context, p *domain.Portfolio, quotes map[string]domain.Quote) error {
	c := p.Clone()
	var fills []domain.Transaction
	for _, ord := range c.PendingOrders() {
		if ord.Type != domain.OrderTypeLimit || ord.LimitPrice == nil {
			continue
		}
		q, ok := quotes[ord.Symbol]
		if !ok || !broker.Crossed(ord.Side, *ord.LimitPrice, q.Price) {
			continue
		}
		meta, err := classify(ord.Symbol)
		if err != nil {
			continue
		}
		if reason := e.restingFillBlocked(c, ord, meta); reason != "" {
			ord.Status = domain.OrderStatusRejected
			ord.Reason = reason
			e.log.Warn("resting order rejected", "order", ord.ID, "reason", reason)
			continue
		}
		cp := *ord
		tx := e.applyFill(c, &cp, meta, *ord.LimitPrice, e.now().UTC())
		fills = append(fills, tx)
	}
	if len(fills) == 0 && !ordersChanged(p, c) {
		return nil
	}
	if err := e.store.Save(c, e.opts.Mode); err != nil {
		return fmt.Errorf("persisting resting fills: %w", err)
	}
	*p = *c
	for i := range fills {
		e.journalFill(ctx, fills[i])
		e.log.Info("resting order filled", "order", fills[i].OrderID,
			"symbol", fills[i].Symbol, "price", fills[i].Price)
	}
	return nil
}

// restingFillBlocked re-validates a resting order at fill time. Cash or the
// held position may have moved since submission.
func (e *Engine) restingFillBlocked(p *domain.Portfolio, ord *domain.Order, meta symbolMeta) string {
	if ord.Side == domain.SideBuy {
		cost := *ord.LimitPrice * float64(ord.Qty) * meta.multiplier()
		if p.Cash-cost < 0 {
			return fmt.Sprintf("insufficient funds at fill time: need %.2f, cash %.2f", cost, p.Cash)
		}
		return ""
	}
	if e.opts.AllowShort {
		return ""
	}
	var held int64
	if pos := p.Position(ord.Symbol); pos != nil {
		held = pos.Qty
	}
	if held < ord.Qty {
		return fmt.Sprintf("insufficient position at fill time: holding %d, selling %d", held, ord.Qty)
	}
	return ""
}

// ordersChanged reports whether any order status differs between p and c.
func ordersChanged(p, c *domain.Portfolio) bool {
	if len(p.Orders) != len(c.Orders) {
		return true
	}
	for i := range p.Orders {
		if p.Orders[i].Status != c.Orders[i].Status {
			return true
		}
	}
	return false
}

// ----------------------------------------------------------------------------
// Fill application

// applyFill applies a fill to the portfolio in place: position update with
// weighted-average basis, realized P&L on reductions, cash movement, order
// transition, and the transaction record. The caller persists the result.
func (e *Engine) applyFill(p *domain.Portfolio, order *domain.Order, meta symbolMeta, price float64, at time.Time) domain.Transaction {
	mult := meta.multiplier()
	qty := order.Qty
	sign := int64(1)
	if order.Side == domain.SideSell {
		sign = -1
	}

	var realized float64
	pos := p.Position(order.Symbol)
	switch {
	case pos == nil:
		p.Positions = append(p.Positions, meta.newPosition(order.Symbol, sign*qty, price))

	case sameDirection(pos.Qty, sign):
		// Increasing the position: weighted-average entry price.
		oldAbs := abs64(pos.Qty)
		pos.AvgEntryPrice = (pos.AvgEntryPrice*float64(oldAbs) + price*float64(qty)) / float64(oldAbs+qty)
		pos.Qty += sign * qty

	default:
		// Reducing, closing, or flipping through zero.
		closed := min64(qty, abs64(pos.Qty))
		dir := int64(1)
		if pos.Qty < 0 {
			dir = -1
		}
		realized = (price - pos.AvgEntryPrice) * float64(closed) * mult * float64(dir)
		newQty := pos.Qty + sign*qty
		switch {
		case newQty == 0:
			p.RemovePosition(order.Symbol)
		case !sameDirection(newQty, dir):
			// The remainder opens a fresh position at the fill price.
			pos.Qty = newQty
			pos.AvgEntryPrice = price
		default:
			pos.Qty = newQty
		}
	}

	notional := price * float64(qty) * mult
	if order.Side == domain.SideBuy {
		p.Cash -= notional
	} else {
		p.Cash += notional
	}
	if e.opts.Mode == domain.ModeSimulated {
		p.BuyingPower = p.Cash * 2
		basis := 0.0
		for i := range p.Positions {
			basis += p.Positions[i].CostBasis()
		}
		p.Equity = p.Cash + basis
	}

	order.Status = domain.OrderStatusFilled
	order.FillPrice = &price
	t := at
	order.FilledAt = &t

	if existing := p.Order(order.ID); existing != nil {
		*existing = *order
	} else {
		p.Orders = append(p.Orders, *order)
	}

	tx := domain.Transaction{
		ID:         e.newID(),
		OrderID:    order.ID,
		Symbol:     order.Symbol,
		Side:       order.Side,
		Qty:        qty,
		Price:      price,
		Timestamp:  at,
		RealizedPL: realized,
	}
	p.Transactions = append(p.Transactions, tx)
	return tx
}

// journalFill records a committed fill in the journal. The portfolio file is
// authoritative, so a journal failure is logged and not surfaced.
func (e *Engine) journalFill(ctx context.Context, tx domain.Transaction) {
	if e.journal == nil {
		return
	}
	if err := e.journal.RecordFill(ctx, e.opts.Mode, &tx); err != nil {
		e.log.Warn("journal write failed", "transaction", tx.ID, "error", err)
	}
}

// Snapshot returns a deep copy of the portfolio taken under the engine lock,
// safe to read while other goroutines trade.
func (e *Engine) Snapshot(p *domain.Portfolio) *domain.Portfolio {
	e.mu.Lock()
	defer e.mu.Unlock()
	return p.Clone()
}

// ----------------------------------------------------------------------------
// Account summary

// Account summarizes the portfolio at cost basis. Live equity comes from
// MarkToMarket; this view needs no quotes.
func (e *Engine) Account(p *domain.Portfolio) domain.AccountInfo {
	basis := 0.0
	for i := range p.Positions {
		basis += p.Positions[i].CostBasis()
	}
	info := domain.AccountInfo{
		Cash:           p.Cash,
		Equity:         p.Cash + basis,
		BuyingPower:    p.Cash,
		PortfolioValue: basis,
	}
	if e.opts.Mode == domain.ModeSimulated {
		info.BuyingPower = p.BuyingPower
	}
	return info
}

// ----------------------------------------------------------------------------
// Symbol classification

// symbolMeta carries what the engine needs to know about a symbol: equity or
// option, and the contract terms when it is an option.
type symbolMeta struct {
	kind     domain.AssetKind
	contract occ.Contract
}

func (m symbolMeta) multiplier() float64 {
	if m.kind == domain.AssetOption {
		return domain.OptionMultiplier
	}
	return 1
}

func (m symbolMeta) newPosition(symbol string, qty int64, price float64) domain.Position {
	pos := domain.Position{
		Symbol:        symbol,
		Qty:           qty,
		AvgEntryPrice: price,
		Kind:          m.kind,
	}
	if m.kind == domain.AssetOption {
		pos.Underlying = m.contract.Underlying
		pos.Expiration = m.contract.Expiration.Format("2006-01-02")
		pos.Strike = m.contract.Strike
		pos.OptionType = m.contract.Type
	}
	return pos
}

// classify decides whether symbol is an equity ticker or an OCC option
// symbol. Anything longer than a ticker must decode as a contract.
func classify(symbol string) (symbolMeta, error) {
	if len(symbol) <= 6 {
		if symbol == "" {
			return symbolMeta{}, fmt.Errorf("empty symbol: %w", domain.ErrMalformedSymbol)
		}
		return symbolMeta{kind: domain.AssetEquity}, nil
	}
	c, err := occ.Decode(symbol)
	if err != nil {
		return symbolMeta{}, err
	}
	return symbolMeta{kind: domain.AssetOption, contract: c}, nil
}

func isBackendFailure(err error) bool {
	return errors.Is(err, domain.ErrBackendTimeout) || errors.Is(err, domain.ErrBackendRejected)
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func sameDirection(qty, sign int64) bool {
	return (qty > 0 && sign > 0) || (qty < 0 && sign < 0)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
