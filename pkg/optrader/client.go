// Package optrader provides a Go client for the optrader-server API.
package optrader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to an optrader-server instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Account retrieves the account summary.
func (c *Client) Account(ctx context.Context) (*Account, error) {
	var out Account
	if err := c.get(ctx, "/api/account", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Positions retrieves the portfolio marked to current quotes.
func (c *Client) Positions(ctx context.Context) (*Valuation, error) {
	var out struct {
		Valuation Valuation `json:"valuation"`
	}
	if err := c.get(ctx, "/api/positions", &out); err != nil {
		return nil, err
	}
	return &out.Valuation, nil
}

// Orders retrieves orders, optionally filtered by status.
func (c *Client) Orders(ctx context.Context, status string) ([]Order, error) {
	path := "/api/orders"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var out struct {
		Orders []Order `json:"orders"`
	}
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// Transactions retrieves the portfolio's fill records.
func (c *Client) Transactions(ctx context.Context) ([]Transaction, error) {
	var out struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := c.get(ctx, "/api/transactions", &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

// SubmitOrder places an order and returns its final record.
func (c *Client) SubmitOrder(ctx context.Context, req PlaceOrder) (*Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	hr.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(hr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp)
	}
	var ord Order
	if err := json.NewDecoder(resp.Body).Decode(&ord); err != nil {
		return nil, fmt.Errorf("decoding order: %w", err)
	}
	return &ord, nil
}

// CancelOrder cancels a pending order by ID.
func (c *Client) CancelOrder(ctx context.Context, id string) error {
	hr, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/orders/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(hr)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

// Quote retrieves the last price for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	var out Quote
	if err := c.get(ctx, "/api/quote/"+url.PathEscape(symbol), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EquityHistory retrieves equity snapshots in [start, end].
func (c *Client) EquityHistory(ctx context.Context, start, end time.Time) ([]EquityPoint, error) {
	path := fmt.Sprintf("/api/equity-history?start=%s&end=%s",
		url.QueryEscape(start.Format(time.RFC3339)), url.QueryEscape(end.Format(time.RFC3339)))
	var out struct {
		Snapshots []EquityPoint `json:"snapshots"`
	}
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Snapshots, nil
}

// Fills retrieves journaled fills, newest first.
func (c *Client) Fills(ctx context.Context, symbol string, limit int) ([]Transaction, error) {
	q := url.Values{}
	if symbol != "" {
		q.Set("symbol", symbol)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	path := "/api/fills"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out struct {
		Fills []Transaction `json:"fills"`
	}
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Fills, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	hr, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(hr)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// apiError turns a non-2xx response into an error carrying the server's
// message.
func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, body.Error)
	}
	return fmt.Errorf("%s", resp.Status)
}
