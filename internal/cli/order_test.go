package cli

import (
	"testing"

	"optrader/internal/domain"
)

func TestOrderFlagsRawSymbol(t *testing.T) {
	o := orderFlags{symbol: "aapl250620c00150000", qty: 2}
	req, err := o.request()
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Symbol != "AAPL250620C00150000" {
		t.Errorf("Symbol = %q", req.Symbol)
	}
	if req.Type != domain.OrderTypeMarket || req.LimitPrice != nil {
		t.Errorf("expected market order, got %s", req.Type)
	}
	if req.Qty != 2 {
		t.Errorf("Qty = %d, want 2", req.Qty)
	}
}

func TestOrderFlagsContractTerms(t *testing.T) {
	o := orderFlags{
		underlying: "aapl", expiration: "2025-06-20", strike: 150, optType: "Call",
		qty: 1, limit: 2.5,
	}
	req, err := o.request()
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Symbol != "AAPL250620C00150000" {
		t.Errorf("Symbol = %q, want AAPL250620C00150000", req.Symbol)
	}
	if req.Type != domain.OrderTypeLimit || req.LimitPrice == nil || *req.LimitPrice != 2.5 {
		t.Errorf("expected limit order at 2.5, got %s %v", req.Type, req.LimitPrice)
	}
}

func TestOrderFlagsErrors(t *testing.T) {
	tests := []struct {
		name string
		o    orderFlags
	}{
		{"nothing given", orderFlags{qty: 1}},
		{"partial terms", orderFlags{underlying: "AAPL", strike: 150, qty: 1}},
		{"bad expiration", orderFlags{underlying: "AAPL", expiration: "06/20/2025", strike: 150, optType: "call", qty: 1}},
		{"bad type", orderFlags{underlying: "AAPL", expiration: "2025-06-20", strike: 150, optType: "straddle", qty: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.o.request(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
