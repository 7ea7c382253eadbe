// Package domain defines the core types shared across the optrader
// platform: positions, orders, transactions, portfolios, and quotes.
package domain

import "time"

// Mode selects which portfolio a session operates on. The two portfolios are
// independent instances and are never merged.
type Mode string

const (
	ModeReal      Mode = "real"
	ModeSimulated Mode = "simulated"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeReal || m == ModeSimulated
}

// AssetKind distinguishes plain equities from option contracts.
type AssetKind string

const (
	AssetEquity AssetKind = "equity"
	AssetOption AssetKind = "option"
)

// OptionType is the contract right: call or put.
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderType is the execution style of an order.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// OrderStatus is the lifecycle state of an order. An order is created
// pending and transitions exactly once to one of the terminal states.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRejected  OrderStatus = "rejected"
)

// Terminal reports whether the status is final.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusFilled || s == OrderStatusCancelled || s == OrderStatusRejected
}

// OptionMultiplier is the share deliverable of one standard option contract.
const OptionMultiplier = 100.0

// Position is an open holding. Qty is signed: positive long, negative short.
// A position whose quantity reaches zero is removed, never kept at zero.
type Position struct {
	Symbol        string    `json:"symbol"`
	Qty           int64     `json:"qty"`
	AvgEntryPrice float64   `json:"avg_entry_price"`
	Kind          AssetKind `json:"kind"`

	// Option contract fields, set only when Kind == AssetOption.
	Underlying string     `json:"underlying,omitempty"`
	Expiration string     `json:"expiration,omitempty"` // YYYY-MM-DD
	Strike     float64    `json:"strike,omitempty"`
	OptionType OptionType `json:"option_type,omitempty"`
}

// Multiplier returns the per-unit share multiplier for the position.
func (p *Position) Multiplier() float64 {
	if p.Kind == AssetOption {
		return OptionMultiplier
	}
	return 1
}

// CostBasis returns the total entry cost of the position.
func (p *Position) CostBasis() float64 {
	return p.AvgEntryPrice * float64(p.Qty) * p.Multiplier()
}

// MarketValue returns the position value at the given last price.
func (p *Position) MarketValue(last float64) float64 {
	return last * float64(p.Qty) * p.Multiplier()
}

// UnrealizedPL returns the open profit or loss at the given last price.
func (p *Position) UnrealizedPL(last float64) float64 {
	return (last - p.AvgEntryPrice) * float64(p.Qty) * p.Multiplier()
}

// Order is a buy or sell instruction and its lifecycle record.
type Order struct {
	ID          string      `json:"id"`
	Symbol      string      `json:"symbol"`
	Side        Side        `json:"side"`
	Qty         int64       `json:"qty"`
	Type        OrderType   `json:"type"`
	LimitPrice  *float64    `json:"limit_price,omitempty"`
	Status      OrderStatus `json:"status"`
	BrokerID    string      `json:"broker_id,omitempty"` // brokerage-assigned ID, real mode only
	SubmittedAt time.Time   `json:"submitted_at"`
	FilledAt    *time.Time  `json:"filled_at,omitempty"`
	FillPrice   *float64    `json:"fill_price,omitempty"`
	Reason      string      `json:"reason,omitempty"` // set on rejection
}

// Transaction is the immutable record of a completed fill. RealizedPL is
// non-zero only when the fill closed or reduced an existing position.
type Transaction struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Qty        int64     `json:"qty"`
	Price      float64   `json:"price"`
	Timestamp  time.Time `json:"timestamp"`
	RealizedPL float64   `json:"realized_pl"`
}

// Quote is an ephemeral last-price observation. Quotes are never persisted.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// AccountInfo is a point-in-time snapshot of account financials.
type AccountInfo struct {
	Cash           float64 `json:"cash"`
	Equity         float64 `json:"equity"`
	BuyingPower    float64 `json:"buying_power"`
	PortfolioValue float64 `json:"portfolio_value"`
}

// Portfolio is the authoritative trading state for one mode. Position
// symbols are unique; Orders and Transactions are append-ordered.
type Portfolio struct {
	Mode         Mode          `json:"-"`
	Cash         float64       `json:"cash"`
	BuyingPower  float64       `json:"buying_power,omitempty"` // simulated mode only
	Equity       float64       `json:"equity,omitempty"`       // simulated mode only
	Positions    []Position    `json:"positions"`
	Orders       []Order       `json:"orders"`
	Transactions []Transaction `json:"transactions"`
}

// Position returns a pointer to the position for symbol, or nil.
func (p *Portfolio) Position(symbol string) *Position {
	for i := range p.Positions {
		if p.Positions[i].Symbol == symbol {
			return &p.Positions[i]
		}
	}
	return nil
}

// RemovePosition deletes the position for symbol, preserving order of the rest.
func (p *Portfolio) RemovePosition(symbol string) {
	for i := range p.Positions {
		if p.Positions[i].Symbol == symbol {
			p.Positions = append(p.Positions[:i], p.Positions[i+1:]...)
			return
		}
	}
}

// Order returns a pointer to the order with the given ID, or nil.
func (p *Portfolio) Order(id string) *Order {
	for i := range p.Orders {
		if p.Orders[i].ID == id {
			return &p.Orders[i]
		}
	}
	return nil
}

// PendingOrders returns pointers to all orders still in pending state.
func (p *Portfolio) PendingOrders() []*Order {
	var out []*Order
	for i := range p.Orders {
		if p.Orders[i].Status == OrderStatusPending {
			out = append(out, &p.Orders[i])
		}
	}
	return out
}

// Clone returns a deep copy of the portfolio. Mutating operations work on a
// clone and swap it in only after a successful save, so a failed commit
// leaves the original untouched.
func (p *Portfolio) Clone() *Portfolio {
	c := &Portfolio{
		Mode:        p.Mode,
		Cash:        p.Cash,
		BuyingPower: p.BuyingPower,
		Equity:      p.Equity,
	}
	c.Positions = append([]Position(nil), p.Positions...)
	c.Orders = make([]Order, len(p.Orders))
	for i := range p.Orders {
		c.Orders[i] = p.Orders[i]
		if lp := p.Orders[i].LimitPrice; lp != nil {
			v := *lp
			c.Orders[i].LimitPrice = &v
		}
		if fp := p.Orders[i].FillPrice; fp != nil {
			v := *fp
			c.Orders[i].FillPrice = &v
		}
		if fa := p.Orders[i].FilledAt; fa != nil {
			v := *fa
			c.Orders[i].FilledAt = &v
		}
	}
	c.Transactions = append([]Transaction(nil), p.Transactions...)
	return c
}

// PositionValue pairs a position with its valuation at the current quote.
type PositionValue struct {
	Position     Position `json:"position"`
	LastPrice    float64  `json:"last_price"`
	MarketValue  float64  `json:"market_value"`
	UnrealizedPL float64  `json:"unrealized_pl"`
}

// Valuation is the result of marking a portfolio to market. Positions with
// no quote available this tick are listed in Missing and excluded from the
// totals.
type Valuation struct {
	Time         time.Time       `json:"time"`
	Cash         float64         `json:"cash"`
	Equity       float64         `json:"equity"`
	UnrealizedPL float64         `json:"unrealized_pl"`
	Positions    []PositionValue `json:"positions"`
	Missing      []string        `json:"missing,omitempty"`
}
