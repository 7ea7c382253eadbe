package optrader

import "time"

// Wire types mirroring the optrader-server JSON API.

// Account is the payload of GET /api/account.
type Account struct {
	Mode    string `json:"mode"`
	Backend string `json:"backend"`
	Account struct {
		Cash           float64 `json:"cash"`
		Equity         float64 `json:"equity"`
		BuyingPower    float64 `json:"buying_power"`
		PortfolioValue float64 `json:"portfolio_value"`
	} `json:"account"`
}

// Position is an open holding.
type Position struct {
	Symbol        string  `json:"symbol"`
	Qty           int64   `json:"qty"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
	Kind          string  `json:"kind"`
	Underlying    string  `json:"underlying,omitempty"`
	Expiration    string  `json:"expiration,omitempty"`
	Strike        float64 `json:"strike,omitempty"`
	OptionType    string  `json:"option_type,omitempty"`
}

// PositionValue pairs a position with its valuation.
type PositionValue struct {
	Position     Position `json:"position"`
	LastPrice    float64  `json:"last_price"`
	MarketValue  float64  `json:"market_value"`
	UnrealizedPL float64  `json:"unrealized_pl"`
}

// Valuation is a mark-to-market result.
type Valuation struct {
	Time         time.Time       `json:"time"`
	Cash         float64         `json:"cash"`
	Equity       float64         `json:"equity"`
	UnrealizedPL float64         `json:"unrealized_pl"`
	Positions    []PositionValue `json:"positions"`
	Missing      []string        `json:"missing,omitempty"`
}

// Order is an order lifecycle record.
type Order struct {
	ID          string     `json:"id"`
	Symbol      string     `json:"symbol"`
	Side        string     `json:"side"`
	Qty         int64      `json:"qty"`
	Type        string     `json:"type"`
	LimitPrice  *float64   `json:"limit_price,omitempty"`
	Status      string     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	FilledAt    *time.Time `json:"filled_at,omitempty"`
	FillPrice   *float64   `json:"fill_price,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

// Transaction is a completed fill.
type Transaction struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Qty        int64     `json:"qty"`
	Price      float64   `json:"price"`
	Timestamp  time.Time `json:"timestamp"`
	RealizedPL float64   `json:"realized_pl"`
}

// Quote is a last-price observation.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// EquityPoint is one equity-curve observation.
type EquityPoint struct {
	Timestamp    string  `json:"timestamp"`
	Cash         float64 `json:"cash"`
	Equity       float64 `json:"equity"`
	UnrealizedPL float64 `json:"unrealized_pl"`
	Positions    int     `json:"positions"`
}

// PlaceOrder is the body of POST /api/orders.
type PlaceOrder struct {
	Symbol     string   `json:"symbol"`
	Side       string   `json:"side"`
	Qty        int64    `json:"qty"`
	Type       string   `json:"type"`
	LimitPrice *float64 `json:"limit_price,omitempty"`
}
