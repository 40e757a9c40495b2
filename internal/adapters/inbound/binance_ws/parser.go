package binance_ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MarkPrice is one <symbol>@markPrice update.
type MarkPrice struct {
	Symbol      string
	Price       decimal.Decimal
	IndexPrice  decimal.Decimal
	FundingRate decimal.Decimal
	NextFunding time.Time
	EventTime   time.Time
}

type markPriceMsg struct {
	EventType   string `json:"e"`
	EventTime   int64  `json:"E"`
	Symbol      string `json:"s"`
	MarkPrice   string `json:"p"`
	IndexPrice  string `json:"i"`
	FundingRate string `json:"r"`
	NextFunding int64  `json:"T"`
}

// parseMarkPrice decodes a markPriceUpdate frame. Frames of any other
// event type return ok=false.
func parseMarkPrice(data []byte) (MarkPrice, bool, error) {
	var msg markPriceMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return MarkPrice{}, false, fmt.Errorf("unmarshal mark price: %w", err)
	}
	if msg.EventType != "markPriceUpdate" {
		return MarkPrice{}, false, nil
	}

	price, err := decimal.NewFromString(msg.MarkPrice)
	if err != nil {
		return MarkPrice{}, false, fmt.Errorf("mark price %q: %w", msg.MarkPrice, err)
	}
	mp := MarkPrice{
		Symbol:      msg.Symbol,
		Price:       price,
		EventTime:   time.UnixMilli(msg.EventTime),
		NextFunding: time.UnixMilli(msg.NextFunding),
	}
	// Index price and funding rate are informational; tolerate blanks.
	if d, err := decimal.NewFromString(msg.IndexPrice); err == nil {
		mp.IndexPrice = d
	}
	if d, err := decimal.NewFromString(msg.FundingRate); err == nil {
		mp.FundingRate = d
	}
	return mp, true, nil
}
