package domain

import (
	"testing"
	"time"
)

func TestPositionMath(t *testing.T) {
	opt := Position{
		Symbol: "AAPL250620C00150000", Qty: 2, AvgEntryPrice: 2.5,
		Kind: AssetOption,
	}
	if opt.Multiplier() != 100 {
		t.Errorf("option Multiplier = %v, want 100", opt.Multiplier())
	}
	if opt.CostBasis() != 500 {
		t.Errorf("CostBasis = %v, want 500", opt.CostBasis())
	}
	if opt.MarketValue(3.0) != 600 {
		t.Errorf("MarketValue = %v, want 600", opt.MarketValue(3.0))
	}
	if opt.UnrealizedPL(3.0) != 100 {
		t.Errorf("UnrealizedPL = %v, want 100", opt.UnrealizedPL(3.0))
	}

	eq := Position{Symbol: "SPY", Qty: 10, AvgEntryPrice: 450, Kind: AssetEquity}
	if eq.Multiplier() != 1 {
		t.Errorf("equity Multiplier = %v, want 1", eq.Multiplier())
	}
	if eq.UnrealizedPL(460) != 100 {
		t.Errorf("equity UnrealizedPL = %v, want 100", eq.UnrealizedPL(460))
	}

	// Short positions invert the P&L sign through the signed quantity.
	short := Position{Symbol: "SPY", Qty: -10, AvgEntryPrice: 450, Kind: AssetEquity}
	if short.UnrealizedPL(440) != 100 {
		t.Errorf("short UnrealizedPL = %v, want 100", short.UnrealizedPL(440))
	}
	if short.CostBasis() != -4500 {
		t.Errorf("short CostBasis = %v, want -4500", short.CostBasis())
	}
}

func TestPortfolioLookups(t *testing.T) {
	p := &Portfolio{
		Positions: []Position{
			{Symbol: "SPY", Qty: 10},
			{Symbol: "AAPL", Qty: 5},
		},
		Orders: []Order{
			{ID: "a", Status: OrderStatusFilled},
			{ID: "b", Status: OrderStatusPending},
			{ID: "c", Status: OrderStatusPending},
		},
	}

	if pos := p.Position("AAPL"); pos == nil || pos.Qty != 5 {
		t.Fatalf("Position(AAPL) = %+v", pos)
	}
	if p.Position("NOPE") != nil {
		t.Error("Position(NOPE) should be nil")
	}

	p.RemovePosition("SPY")
	if len(p.Positions) != 1 || p.Positions[0].Symbol != "AAPL" {
		t.Errorf("after RemovePosition: %+v", p.Positions)
	}
	p.RemovePosition("NOPE") // no-op

	if ord := p.Order("b"); ord == nil || ord.Status != OrderStatusPending {
		t.Fatalf("Order(b) = %+v", ord)
	}
	pending := p.PendingOrders()
	if len(pending) != 2 || pending[0].ID != "b" || pending[1].ID != "c" {
		t.Errorf("PendingOrders = %+v", pending)
	}
}

func TestPortfolioCloneIsDeep(t *testing.T) {
	limit := 2.5
	fill := 2.4
	at := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
	p := &Portfolio{
		Cash: 99750,
		Positions: []Position{
			{Symbol: "SPY", Qty: 10, AvgEntryPrice: 450},
		},
		Orders: []Order{
			{ID: "a", Status: OrderStatusFilled, LimitPrice: &limit, FillPrice: &fill, FilledAt: &at},
		},
		Transactions: []Transaction{
			{ID: "t1", OrderID: "a"},
		},
	}

	c := p.Clone()
	c.Cash = 0
	c.Positions[0].Qty = 99
	*c.Orders[0].LimitPrice = 9.9
	*c.Orders[0].FillPrice = 9.9
	*c.Orders[0].FilledAt = at.Add(time.Hour)
	c.Transactions[0].ID = "mutated"

	if p.Cash != 99750 {
		t.Error("Cash shared with clone")
	}
	if p.Positions[0].Qty != 10 {
		t.Error("Positions shared with clone")
	}
	if *p.Orders[0].LimitPrice != 2.5 || *p.Orders[0].FillPrice != 2.4 {
		t.Error("order price pointers shared with clone")
	}
	if !p.Orders[0].FilledAt.Equal(at) {
		t.Error("FilledAt pointer shared with clone")
	}
	if p.Transactions[0].ID != "t1" {
		t.Error("Transactions shared with clone")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for status, want := range map[OrderStatus]bool{
		OrderStatusPending:   false,
		OrderStatusFilled:    true,
		OrderStatusCancelled: true,
		OrderStatusRejected:  true,
	} {
		if status.Terminal() != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, !want, want)
		}
	}
}

func TestModeValid(t *testing.T) {
	if !ModeReal.Valid() || !ModeSimulated.Valid() {
		t.Error("known modes must be valid")
	}
	if Mode("paper").Valid() {
		t.Error("unknown mode must be invalid")
	}
}
