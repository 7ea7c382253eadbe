package httpapi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"optrader/internal/broker"
	"optrader/internal/domain"
	"optrader/internal/engine"
	"optrader/internal/quote"
	"optrader/internal/store"
)

const callSym = "AAPL250620C00150000"

type testAPI struct {
	srv    *Server
	ts     *httptest.Server
	quotes *quote.StaticSource
	snaps  *store.ParquetSnapshots
}

func newTestAPI(t *testing.T, prices map[string]float64) *testAPI {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	dir := t.TempDir()

	fs := store.NewFileStore(dir, 100000)
	qs := quote.NewStaticSource(prices)
	journal, err := store.NewSQLiteJournal(filepath.Join(dir, "fills.db"))
	if err != nil {
		t.Fatalf("NewSQLiteJournal: %v", err)
	}
	t.Cleanup(func() { journal.Close() })
	snaps := store.NewParquetSnapshots(dir)

	e := engine.New(fs, broker.NewSimBackend(qs, log), qs, journal,
		engine.Options{Mode: domain.ModeSimulated}, log)
	pf, err := fs.Load(domain.ModeSimulated)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	srv := NewServer(e, pf, qs, journal, snaps, log)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testAPI{srv: srv, ts: ts, quotes: qs, snaps: snaps}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req, err := http.NewRequest(method, a.ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, out.Bytes()
}

func (a *testAPI) placeOrder(t *testing.T, body PlaceOrderRequest, wantStatus int) domain.Order {
	t.Helper()
	resp, data := a.do(t, http.MethodPost, "/api/orders", body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("POST /api/orders = %d, want %d: %s", resp.StatusCode, wantStatus, data)
	}
	var ord domain.Order
	if wantStatus == http.StatusCreated {
		if err := json.Unmarshal(data, &ord); err != nil {
			t.Fatalf("decoding order: %v", err)
		}
	}
	return ord
}

func TestAccountEndpoint(t *testing.T) {
	a := newTestAPI(t, map[string]float64{callSym: 2.5})

	resp, data := a.do(t, http.MethodGet, "/api/account", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var got AccountResponse
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if got.Mode != domain.ModeSimulated || got.Backend != "simulator" {
		t.Errorf("mode/backend = %s/%s", got.Mode, got.Backend)
	}
	if got.Account.Cash != 100000 || got.Account.BuyingPower != 200000 {
		t.Errorf("account = %+v", got.Account)
	}
}

func TestPlaceOrderAndPositions(t *testing.T) {
	a := newTestAPI(t, map[string]float64{callSym: 2.5})

	ord := a.placeOrder(t, PlaceOrderRequest{
		Symbol: callSym, Side: "buy", Qty: 1, Type: "market",
	}, http.StatusCreated)
	if ord.Status != domain.OrderStatusFilled {
		t.Fatalf("order status = %s, want filled", ord.Status)
	}

	a.quotes.Set(callSym, 3.0)
	resp, data := a.do(t, http.MethodGet, "/api/positions", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/positions = %d", resp.StatusCode)
	}
	var got PositionsResponse
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(got.Valuation.Positions) != 1 {
		t.Fatalf("positions = %d, want 1", len(got.Valuation.Positions))
	}
	pv := got.Valuation.Positions[0]
	if pv.LastPrice != 3.0 || pv.UnrealizedPL != 50 {
		t.Errorf("last/upl = %v/%v, want 3.0/50", pv.LastPrice, pv.UnrealizedPL)
	}
	if got.Valuation.Equity != 100050 {
		t.Errorf("equity = %v, want 100050", got.Valuation.Equity)
	}

	// The fill landed in the journal too.
	resp, data = a.do(t, http.MethodGet, "/api/fills?symbol="+callSym, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/fills = %d", resp.StatusCode)
	}
	var fills FillsResponse
	if err := json.Unmarshal(data, &fills); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(fills.Fills) != 1 || fills.Fills[0].OrderID != ord.ID {
		t.Errorf("fills = %+v", fills.Fills)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	a := newTestAPI(t, map[string]float64{callSym: 2.5})

	tests := []struct {
		name string
		body PlaceOrderRequest
		want int
	}{
		{"bad side", PlaceOrderRequest{Symbol: callSym, Side: "hold", Qty: 1}, http.StatusBadRequest},
		{"bad type", PlaceOrderRequest{Symbol: callSym, Side: "buy", Qty: 1, Type: "stop"}, http.StatusBadRequest},
		{"zero qty", PlaceOrderRequest{Symbol: callSym, Side: "buy", Qty: 0, Type: "market"}, http.StatusBadRequest},
		{"limit without price", PlaceOrderRequest{Symbol: callSym, Side: "buy", Qty: 1, Type: "limit"}, http.StatusBadRequest},
		{"malformed symbol", PlaceOrderRequest{Symbol: "AAPL250620X00150000", Side: "buy", Qty: 1, Type: "market"}, http.StatusBadRequest},
		{"insufficient funds", PlaceOrderRequest{Symbol: callSym, Side: "buy", Qty: 10000, Type: "market"}, http.StatusUnprocessableEntity},
		{"insufficient position", PlaceOrderRequest{Symbol: callSym, Side: "sell", Qty: 1, Type: "market"}, http.StatusUnprocessableEntity},
		{"no quote", PlaceOrderRequest{Symbol: "MISSNG", Side: "buy", Qty: 1, Type: "market"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a.placeOrder(t, tt.body, tt.want)
		})
	}
}

func TestCancelOrderEndpoint(t *testing.T) {
	a := newTestAPI(t, map[string]float64{callSym: 2.5})

	limit := 2.0
	ord := a.placeOrder(t, PlaceOrderRequest{
		Symbol: callSym, Side: "buy", Qty: 1, Type: "limit", LimitPrice: &limit,
	}, http.StatusCreated)
	if ord.Status != domain.OrderStatusPending {
		t.Fatalf("order status = %s, want pending", ord.Status)
	}

	resp, _ := a.do(t, http.MethodDelete, "/api/orders/"+ord.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("DELETE = %d, want 200", resp.StatusCode)
	}

	// Cancelled orders are terminal.
	resp, _ = a.do(t, http.MethodDelete, "/api/orders/"+ord.ID, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("DELETE again = %d, want 409", resp.StatusCode)
	}

	resp, _ = a.do(t, http.MethodDelete, "/api/orders/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("DELETE unknown = %d, want 404", resp.StatusCode)
	}
}

func TestOrdersFilterByStatus(t *testing.T) {
	a := newTestAPI(t, map[string]float64{callSym: 2.5})

	a.placeOrder(t, PlaceOrderRequest{Symbol: callSym, Side: "buy", Qty: 1, Type: "market"}, http.StatusCreated)
	limit := 2.0
	a.placeOrder(t, PlaceOrderRequest{Symbol: callSym, Side: "buy", Qty: 1, Type: "limit", LimitPrice: &limit}, http.StatusCreated)

	resp, data := a.do(t, http.MethodGet, "/api/orders?status=pending", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/orders = %d", resp.StatusCode)
	}
	var got OrdersResponse
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(got.Orders) != 1 || got.Orders[0].Status != domain.OrderStatusPending {
		t.Errorf("pending orders = %+v", got.Orders)
	}
}

func TestQuoteEndpoint(t *testing.T) {
	a := newTestAPI(t, map[string]float64{"SPY": 450})

	resp, data := a.do(t, http.MethodGet, "/api/quote/SPY", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var q domain.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if q.Symbol != "SPY" || q.Price != 450 {
		t.Errorf("quote = %+v", q)
	}

	resp, _ = a.do(t, http.MethodGet, "/api/quote/NOPE", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing quote = %d, want 404", resp.StatusCode)
	}
}

func TestEquityHistoryEndpoint(t *testing.T) {
	a := newTestAPI(t, nil)

	now := time.Now().UTC().Truncate(time.Second)
	err := a.snaps.Append(store.EquitySnapshot{
		Timestamp: now, Mode: domain.ModeSimulated,
		Cash: 99750, Equity: 100050, UnrealizedPL: 300, Positions: 1,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	resp, data := a.do(t, http.MethodGet, "/api/equity-history", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var got EquityHistoryResponse
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(got.Snapshots) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(got.Snapshots))
	}
	if got.Snapshots[0].Equity != 100050 {
		t.Errorf("equity = %v, want 100050", got.Snapshots[0].Equity)
	}
}

func TestWebsocketValuationStream(t *testing.T) {
	a := newTestAPI(t, nil)

	wsURL := "ws" + strings.TrimPrefix(a.ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	// Give the hub time to register the client before broadcasting.
	time.Sleep(50 * time.Millisecond)
	a.srv.BroadcastValuation(domain.Valuation{Equity: 100050, Cash: 99750})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var env struct {
		Type string           `json:"type"`
		Data domain.Valuation `json:"data"`
	}
	if err := json.Unmarshal(msg, &env); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if env.Type != "valuation" || env.Data.Equity != 100050 {
		t.Errorf("message = %s", msg)
	}
}
