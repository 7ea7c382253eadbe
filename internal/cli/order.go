package cli

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"optrader/internal/domain"
	"optrader/internal/engine"
	"optrader/internal/occ"
)

// orderFlags are the flags shared by buy and sell. The contract can be given
// either as a raw symbol (-symbol, equity ticker or OCC option symbol) or by
// its terms (-underlying, -expiration, -strike, -type).
type orderFlags struct {
	symbol     string
	underlying string
	expiration string
	strike     float64
	optType    string
	qty        int64
	limit      float64
}

func (o *orderFlags) setFlags(f *flag.FlagSet) {
	f.StringVar(&o.symbol, "symbol", "", "Equity ticker or OCC option symbol (e.g. AAPL250620C00150000).")
	f.StringVar(&o.underlying, "underlying", "", "Option underlying (used with -expiration, -strike, -type).")
	f.StringVar(&o.expiration, "expiration", "", "Option expiration, YYYY-MM-DD.")
	f.Float64Var(&o.strike, "strike", 0, "Option strike price.")
	f.StringVar(&o.optType, "type", "", "Option type: call or put.")
	f.Int64Var(&o.qty, "qty", 1, "Quantity in contracts (options) or shares (equities).")
	f.Float64Var(&o.limit, "limit", 0, "Limit price. 0 places a market order.")
}

// request resolves the flags into an engine order request, encoding the OCC
// symbol when contract terms were given.
func (o *orderFlags) request() (engine.OrderRequest, error) {
	symbol := strings.ToUpper(o.symbol)
	if symbol == "" {
		if o.underlying == "" || o.expiration == "" || o.strike == 0 || o.optType == "" {
			return engine.OrderRequest{}, fmt.Errorf("provide -symbol, or -underlying -expiration -strike -type")
		}
		exp, err := time.Parse("2006-01-02", o.expiration)
		if err != nil {
			return engine.OrderRequest{}, fmt.Errorf("parsing expiration: %w", err)
		}
		typ := domain.OptionType(strings.ToLower(o.optType))
		symbol, err = occ.Encode(strings.ToUpper(o.underlying), exp, o.strike, typ)
		if err != nil {
			return engine.OrderRequest{}, err
		}
	}

	req := engine.OrderRequest{
		Symbol: symbol,
		Qty:    o.qty,
		Type:   domain.OrderTypeMarket,
	}
	if o.limit > 0 {
		limit := o.limit
		req.Type = domain.OrderTypeLimit
		req.LimitPrice = &limit
	}
	return req, nil
}

// printOrder reports the outcome of an order submission.
func printOrder(ord domain.Order) {
	switch ord.Status {
	case domain.OrderStatusFilled:
		fmt.Printf("%s %d %s filled at %.2f (order %s)\n",
			ord.Side, ord.Qty, ord.Symbol, *ord.FillPrice, ord.ID)
	case domain.OrderStatusPending:
		fmt.Printf("%s %d %s resting at limit %.2f (order %s)\n",
			ord.Side, ord.Qty, ord.Symbol, *ord.LimitPrice, ord.ID)
	default:
		fmt.Printf("%s %d %s %s: %s (order %s)\n",
			ord.Side, ord.Qty, ord.Symbol, ord.Status, ord.Reason, ord.ID)
	}
}
