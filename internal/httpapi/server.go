// Package httpapi serves the dashboard JSON API: account and position views,
// order entry and cancellation, quote lookup, equity history, the fill
// journal, and a websocket stream of valuations.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"optrader/internal/domain"
	"optrader/internal/engine"
	"optrader/internal/quote"
	"optrader/internal/store"
)

// Server serves the dashboard API for one engine/portfolio pair.
type Server struct {
	engine  *engine.Engine
	pf      *domain.Portfolio
	quotes  quote.Source
	journal store.FillJournal   // nil disables /api/fills
	snaps   store.SnapshotStore // nil disables /api/equity-history
	hub     *Hub
	log     *slog.Logger
}

// NewServer creates the API server and starts its websocket hub.
func NewServer(e *engine.Engine, pf *domain.Portfolio, qs quote.Source, journal store.FillJournal, snaps store.SnapshotStore, log *slog.Logger) *Server {
	s := &Server{
		engine:  e,
		pf:      pf,
		quotes:  qs,
		journal: journal,
		snaps:   snaps,
		hub:     NewHub(log),
		log:     log.With("component", "httpapi"),
	}
	go s.hub.Run()
	return s
}

// BroadcastValuation pushes a valuation to all websocket subscribers. Wired
// as the monitor's OnValuation callback.
func (s *Server) BroadcastValuation(val domain.Valuation) {
	s.hub.BroadcastJSON(wsMessage{Type: "valuation", Data: val})
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/account", s.handleAccount)
	mux.HandleFunc("GET /api/positions", s.handlePositions)
	mux.HandleFunc("GET /api/orders", s.handleOrders)
	mux.HandleFunc("POST /api/orders", s.handlePlaceOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", s.handleCancelOrder)
	mux.HandleFunc("GET /api/transactions", s.handleTransactions)
	mux.HandleFunc("GET /api/quote/{symbol}", s.handleQuote)
	mux.HandleFunc("GET /api/equity-history", s.handleEquityHistory)
	mux.HandleFunc("GET /api/fills", s.handleFills)
	mux.HandleFunc("GET /api/ws", s.handleWS)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ----------------------------------------------------------------------------
// Handlers

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot(s.pf)
	writeJSON(w, AccountResponse{
		Mode:    s.engine.Mode(),
		Backend: s.engine.Backend(),
		Account: s.engine.Account(snap),
	})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot(s.pf)
	quotes := make(map[string]domain.Quote, len(snap.Positions))
	for i := range snap.Positions {
		sym := snap.Positions[i].Symbol
		q, err := s.quotes.GetQuote(r.Context(), sym)
		if err != nil {
			continue // reported via Missing
		}
		quotes[sym] = q
	}
	val, err := s.engine.MarkToMarket(r.Context(), s.pf, quotes)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, PositionsResponse{Valuation: val})
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot(s.pf)
	status := r.URL.Query().Get("status")
	orders := snap.Orders
	if status != "" {
		filtered := make([]domain.Order, 0, len(orders))
		for _, o := range orders {
			if string(o.Status) == status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, OrdersResponse{Orders: orders})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot(s.pf)
	txs := snap.Transactions
	if txs == nil {
		txs = []domain.Transaction{}
	}
	writeJSON(w, TransactionsResponse{Transactions: txs})
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var body PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decoding body: %v", err))
		return
	}

	req := engine.OrderRequest{
		Symbol:     body.Symbol,
		Qty:        body.Qty,
		Type:       domain.OrderType(body.Type),
		LimitPrice: body.LimitPrice,
	}
	if req.Type == "" {
		req.Type = domain.OrderTypeMarket
	}
	if req.Type != domain.OrderTypeMarket && req.Type != domain.OrderTypeLimit {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown order type %q", body.Type))
		return
	}

	var (
		ord domain.Order
		err error
	)
	switch domain.Side(strings.ToLower(body.Side)) {
	case domain.SideBuy:
		ord, err = s.engine.Buy(r.Context(), s.pf, req)
	case domain.SideSell:
		ord, err = s.engine.Sell(r.Context(), s.pf, req)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown side %q", body.Side))
		return
	}
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(ord); err != nil {
		s.log.Error("encoding order response", "error", err)
	}
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.engine.Cancel(r.Context(), s.pf, id)
	switch {
	case err == nil:
		writeJSON(w, map[string]string{"status": "cancelled", "id": id})
	case errors.Is(err, domain.ErrOrderNotCancellable):
		writeError(w, http.StatusConflict, err.Error())
	case strings.Contains(err.Error(), "not found"):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	q, err := s.quotes.GetQuote(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, domain.ErrQuoteUnavailable) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, q)
}

func (s *Server) handleEquityHistory(w http.ResponseWriter, r *http.Request) {
	if s.snaps == nil {
		writeError(w, http.StatusServiceUnavailable, "equity history not configured")
		return
	}
	end := time.Now()
	start := end.AddDate(0, 0, -7)
	var err error
	if v := r.URL.Query().Get("start"); v != "" {
		if start, err = time.Parse(time.RFC3339, v); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("bad start: %v", err))
			return
		}
	}
	if v := r.URL.Query().Get("end"); v != "" {
		if end, err = time.Parse(time.RFC3339, v); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("bad end: %v", err))
			return
		}
	}

	snaps, err := s.snaps.List(s.engine.Mode(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	points := make([]EquityPoint, 0, len(snaps))
	for _, sn := range snaps {
		points = append(points, equityPoint(sn))
	}
	writeJSON(w, EquityHistoryResponse{Snapshots: points})
}

func (s *Server) handleFills(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, "fill journal not configured")
		return
	}
	symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("bad limit %q", v))
			return
		}
		limit = n
	}
	fills, err := s.journal.ListFills(r.Context(), s.engine.Mode(), symbol, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if fills == nil {
		fills = []domain.Transaction{}
	}
	writeJSON(w, FillsResponse{Fills: fills})
}

// ----------------------------------------------------------------------------
// Helpers

// statusForError maps engine errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrMissingLimitPrice),
		errors.Is(err, domain.ErrMalformedSymbol),
		errors.Is(err, domain.ErrFieldOverflow):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientPosition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrQuoteUnavailable):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBackendTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrBackendRejected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
