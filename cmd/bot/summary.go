package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charleschow/futures-bot/internal/core/execution"
)

// printSummary writes a concise order summary, falling back to the raw
// body when there is no decoded acknowledgement.
func printSummary(w io.Writer, res execution.Result) {
	if !res.Order.Decoded() {
		fmt.Fprintln(w, "Could not parse order response. Raw response:")
		fmt.Fprintln(w, prettyJSON(res.Raw))
		return
	}
	o := res.Order
	rule := strings.Repeat("=", 40)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "OrderId: %d\n", o.OrderID)
	fmt.Fprintf(w, "ClientId: %s\n", o.ClientOrderID)
	fmt.Fprintf(w, "Symbol : %s\n", o.Symbol)
	fmt.Fprintf(w, "Side   : %s\n", o.Side)
	fmt.Fprintf(w, "Type   : %s\n", o.Type)
	fmt.Fprintf(w, "Status : %s\n", o.Status)
	fmt.Fprintf(w, "Price  : %s\n", o.Price)
	if o.StopPrice != "" && o.StopPrice != "0" {
		fmt.Fprintf(w, "StopPrice: %s\n", o.StopPrice)
	}
	fmt.Fprintf(w, "ExecutedQty: %s\n", o.ExecutedQty)
	fmt.Fprintf(w, "AvgFillPrice: %s\n", o.AvgPrice)
	fmt.Fprintln(w, rule)
}

func printTWAPSummary(w io.Writer, report execution.TWAPReport) {
	fmt.Fprintf(w, "TWAP results (run %s):\n", report.RunID)
	for _, s := range report.Slices {
		switch {
		case s.Success:
			fmt.Fprintf(w, "Slice %d: %s -> orderId %d (%s)\n", s.Index, s.Quantity, s.Order.OrderID, s.Order.Status)
		default:
			fmt.Fprintf(w, "Slice %d: %s -> error: %v\n", s.Index, s.Quantity, s.Err)
		}
	}
}

func prettyJSON(raw []byte) string {
	if len(raw) == 0 {
		return "(empty)"
	}
	out, err := json.MarshalIndent(json.RawMessage(raw), "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}
