package httpapi

import (
	"time"

	"optrader/internal/domain"
	"optrader/internal/store"
)

// AccountResponse is the payload of GET /api/account.
type AccountResponse struct {
	Mode    domain.Mode        `json:"mode"`
	Backend string             `json:"backend"`
	Account domain.AccountInfo `json:"account"`
}

// PositionsResponse is the payload of GET /api/positions: the portfolio
// marked to the freshest quotes obtainable for this request.
type PositionsResponse struct {
	Valuation domain.Valuation `json:"valuation"`
}

// OrdersResponse is the payload of GET /api/orders.
type OrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

// TransactionsResponse is the payload of GET /api/transactions.
type TransactionsResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
}

// PlaceOrderRequest is the body of POST /api/orders.
type PlaceOrderRequest struct {
	Symbol     string   `json:"symbol"`
	Side       string   `json:"side"`
	Qty        int64    `json:"qty"`
	Type       string   `json:"type"`
	LimitPrice *float64 `json:"limit_price,omitempty"`
}

// EquityHistoryResponse is the payload of GET /api/equity-history.
type EquityHistoryResponse struct {
	Snapshots []EquityPoint `json:"snapshots"`
}

// EquityPoint is one equity-curve observation in wire form.
type EquityPoint struct {
	Timestamp    string  `json:"timestamp"`
	Cash         float64 `json:"cash"`
	Equity       float64 `json:"equity"`
	UnrealizedPL float64 `json:"unrealized_pl"`
	Positions    int     `json:"positions"`
}

func equityPoint(s store.EquitySnapshot) EquityPoint {
	return EquityPoint{
		Timestamp:    s.Timestamp.UTC().Format(time.RFC3339),
		Cash:         s.Cash,
		Equity:       s.Equity,
		UnrealizedPL: s.UnrealizedPL,
		Positions:    s.Positions,
	}
}

// FillsResponse is the payload of GET /api/fills.
type FillsResponse struct {
	Fills []domain.Transaction `json:"fills"`
}

// wsMessage is the envelope pushed to websocket subscribers.
type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
