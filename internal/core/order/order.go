package order

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type Type string

const (
	TypeMarket     Type = "MARKET"
	TypeLimit      Type = "LIMIT"
	TypeStopMarket Type = "STOP_MARKET"
)

type TimeInForce string

const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
)

// Request is a single order intent for POST /fapi/v1/order.
// Price is set iff Type is LIMIT; StopPrice is set iff Type is STOP_MARKET.
type Request struct {
	Symbol        string
	Side          Side
	Type          Type
	Quantity      decimal.Decimal
	Price         *decimal.Decimal
	StopPrice     *decimal.Decimal
	TimeInForce   TimeInForce // LIMIT only, defaults to GTC
	ReduceOnly    bool
	ClosePosition bool
	ClientOrderID string
	Timestamp     int64 // epoch millis, 0 means "stamp at send time"
}

// ParseSide accepts either case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", validationf("side", "must be BUY or SELL, got %q", s)
}

// ParseType accepts the CLI spellings ("stop-market", "stop") as well as
// the exchange names.
func ParseType(s string) (Type, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	switch norm {
	case "MARKET":
		return TypeMarket, nil
	case "LIMIT":
		return TypeLimit, nil
	case "STOP_MARKET", "STOP":
		return TypeStopMarket, nil
	}
	return "", validationf("type", "unsupported order type %q", s)
}

func ParseTimeInForce(s string) (TimeInForce, error) {
	switch tif := TimeInForce(strings.ToUpper(strings.TrimSpace(s))); tif {
	case GTC, IOC, FOK:
		return tif, nil
	case "":
		return GTC, nil
	}
	return "", validationf("timeInForce", "must be GTC, IOC or FOK, got %q", s)
}

// ParsePositive parses a decimal that must be strictly greater than zero.
func ParsePositive(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, validationf(field, "must be a number, got %q", s)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, validationf(field, "must be > 0, got %s", d)
	}
	return d, nil
}

// Normalize upper-cases the symbol and fills the LIMIT time-in-force default.
func (r Request) Normalize() Request {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	r.Side = Side(strings.ToUpper(string(r.Side)))
	if r.Type == TypeLimit && r.TimeInForce == "" {
		r.TimeInForce = GTC
	}
	return r
}

// Validate enforces the local invariants that must hold before anything is
// sent to the exchange.
func (r Request) Validate() error {
	if r.Symbol == "" {
		return validationf("symbol", "is required")
	}
	if r.Side != SideBuy && r.Side != SideSell {
		return validationf("side", "must be BUY or SELL, got %q", r.Side)
	}
	if !r.Quantity.IsPositive() && !r.ClosePosition {
		return validationf("quantity", "must be > 0")
	}

	switch r.Type {
	case TypeMarket:
		if r.Price != nil {
			return validationf("price", "not allowed for MARKET orders")
		}
		if r.StopPrice != nil {
			return validationf("stopPrice", "not allowed for MARKET orders")
		}
	case TypeLimit:
		if r.Price == nil {
			return validationf("price", "LIMIT orders require --price")
		}
		if !r.Price.IsPositive() {
			return validationf("price", "must be > 0")
		}
		if r.StopPrice != nil {
			return validationf("stopPrice", "not allowed for LIMIT orders")
		}
		switch r.TimeInForce {
		case GTC, IOC, FOK:
		default:
			return validationf("timeInForce", "must be GTC, IOC or FOK, got %q", r.TimeInForce)
		}
	case TypeStopMarket:
		if r.StopPrice == nil {
			return validationf("stopPrice", "STOP_MARKET orders require --stop-price")
		}
		if !r.StopPrice.IsPositive() {
			return validationf("stopPrice", "must be > 0")
		}
		if r.Price != nil {
			return validationf("price", "not allowed for STOP_MARKET orders")
		}
	default:
		return validationf("type", "unsupported order type %q", r.Type)
	}

	if r.Type != TypeLimit && r.TimeInForce != "" {
		return validationf("timeInForce", "only valid for LIMIT orders")
	}
	if r.ClientOrderID != "" && len(r.ClientOrderID) > 36 {
		return validationf("clientOrderId", "must be at most 36 characters")
	}
	return nil
}
