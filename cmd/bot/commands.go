package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/charleschow/futures-bot/internal/core/execution"
	"github.com/charleschow/futures-bot/internal/core/order"
)

type globalFlags struct {
	apiKey    string
	apiSecret string
	baseURL   string
	verbose   bool
}

// parseGlobal parses flags that precede the command name and returns the
// remaining arguments (command first).
func parseGlobal(args []string, stderr io.Writer) (globalFlags, []string, error) {
	var g globalFlags
	fs := flag.NewFlagSet("bot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&g.apiKey, "api-key", "", "Binance API key (or set BINANCE_API_KEY)")
	fs.StringVar(&g.apiSecret, "api-secret", "", "Binance API secret (or set BINANCE_API_SECRET)")
	fs.StringVar(&g.baseURL, "base-url", "", "REST base URL (default https://testnet.binancefuture.com)")
	fs.BoolVar(&g.verbose, "verbose", false, "show debug logs on the console")
	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return g, nil, err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return g, nil, fmt.Errorf("missing command")
	}
	return g, fs.Args(), nil
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `Basic Binance Futures Testnet trading bot (USDT-M)

Usage:
  bot [global flags] <command> [flags]

Commands:
  market       place a MARKET order
  limit        place a LIMIT order (--price required)
  stop-market  place a STOP_MARKET order (--stop-price required)
  twap         split --quantity into sliced MARKET orders
  ping         check REST connectivity
  time         show exchange server time and local clock offset
  watch        stream mark price updates

Global flags:
`)
	fs.PrintDefaults()
}

type orderFlags struct {
	symbol      string
	side        string
	quantity    string
	price       string
	stopPrice   string
	timeInForce string
	reduceOnly  bool
	clientID    string
}

// parseOrderArgs builds the order request for market, limit and stop-market.
// Flags that do not apply to a command are not registered, so passing
// --price to market is a usage error.
func parseOrderArgs(command string, args []string, stderr io.Writer) (order.Request, error) {
	typ, err := order.ParseType(command)
	if err != nil {
		return order.Request{}, err
	}

	var f orderFlags
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.symbol, "symbol", "", "trading pair symbol, e.g. BTCUSDT (required)")
	fs.StringVar(&f.side, "side", "", "BUY or SELL (required)")
	fs.StringVar(&f.quantity, "quantity", "", "order quantity in base units (required)")
	fs.BoolVar(&f.reduceOnly, "reduce-only", false, "only reduce an open position")
	fs.StringVar(&f.clientID, "client-id", "", "client order id (default: random UUID)")
	switch typ {
	case order.TypeLimit:
		fs.StringVar(&f.price, "price", "", "limit price (required)")
		fs.StringVar(&f.timeInForce, "time-in-force", "GTC", "GTC, IOC or FOK")
	case order.TypeStopMarket:
		fs.StringVar(&f.stopPrice, "stop-price", "", "trigger price (required)")
	}

	if err := fs.Parse(args); err != nil {
		return order.Request{}, err
	}
	if fs.NArg() > 0 {
		return order.Request{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	req := order.Request{
		Symbol:        f.symbol,
		Type:          typ,
		ReduceOnly:    f.reduceOnly,
		ClientOrderID: f.clientID,
	}
	if req.Side, err = order.ParseSide(f.side); err != nil {
		return order.Request{}, err
	}
	if req.Quantity, err = order.ParsePositive("quantity", f.quantity); err != nil {
		return order.Request{}, err
	}

	switch typ {
	case order.TypeLimit:
		if f.price == "" {
			return order.Request{}, &order.ValidationError{Field: "price", Reason: "LIMIT orders require --price"}
		}
		price, err := order.ParsePositive("price", f.price)
		if err != nil {
			return order.Request{}, err
		}
		req.Price = &price
		if req.TimeInForce, err = order.ParseTimeInForce(f.timeInForce); err != nil {
			return order.Request{}, err
		}
	case order.TypeStopMarket:
		if f.stopPrice == "" {
			return order.Request{}, &order.ValidationError{Field: "stopPrice", Reason: "STOP_MARKET orders require --stop-price"}
		}
		stop, err := order.ParsePositive("stopPrice", f.stopPrice)
		if err != nil {
			return order.Request{}, err
		}
		req.StopPrice = &stop
	}

	req = req.Normalize()
	return req, req.Validate()
}

func parseTWAPArgs(args []string, stderr io.Writer) (execution.TWAPPlan, error) {
	var (
		symbol, side, quantity string
		slices                 int
		interval               float64
		reduceOnly             bool
	)
	fs := flag.NewFlagSet("twap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&symbol, "symbol", "", "trading pair symbol (required)")
	fs.StringVar(&side, "side", "", "BUY or SELL (required)")
	fs.StringVar(&quantity, "quantity", "", "total quantity across all slices (required)")
	fs.IntVar(&slices, "slices", execution.DefaultTWAPSlices, "number of slices")
	fs.Float64Var(&interval, "interval", execution.DefaultTWAPInterval.Seconds(), "seconds between slices")
	fs.BoolVar(&reduceOnly, "reduce-only", false, "only reduce an open position")

	if err := fs.Parse(args); err != nil {
		return execution.TWAPPlan{}, err
	}
	if fs.NArg() > 0 {
		return execution.TWAPPlan{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	plan := execution.TWAPPlan{
		Symbol:     symbol,
		Slices:     slices,
		Interval:   time.Duration(interval * float64(time.Second)),
		ReduceOnly: reduceOnly,
	}
	var err error
	if plan.Side, err = order.ParseSide(side); err != nil {
		return execution.TWAPPlan{}, err
	}
	if plan.Quantity, err = order.ParsePositive("quantity", quantity); err != nil {
		return execution.TWAPPlan{}, err
	}
	plan.Symbol = order.Request{Symbol: plan.Symbol}.Normalize().Symbol
	return plan, plan.Validate()
}

type watchFlags struct {
	symbol string
	count  int
}

func parseWatchArgs(args []string, stderr io.Writer) (watchFlags, error) {
	var w watchFlags
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&w.symbol, "symbol", "", "trading pair symbol (required)")
	fs.IntVar(&w.count, "count", 0, "stop after N updates (0 = until Ctrl-C)")
	if err := fs.Parse(args); err != nil {
		return w, err
	}
	if fs.NArg() > 0 {
		return w, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if w.symbol == "" {
		return w, &order.ValidationError{Field: "symbol", Reason: "is required"}
	}
	if w.count < 0 {
		return w, &order.ValidationError{Field: "count", Reason: "must be >= 0"}
	}
	return w, nil
}
