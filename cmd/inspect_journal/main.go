// Print recent rows of the order journal.
//
// Usage:
//
//	go run ./cmd/inspect_journal            # last 10 submissions
//	go run ./cmd/inspect_journal -n 50
//	go run ./cmd/inspect_journal -run <twap run id>
//	go run ./cmd/inspect_journal -v         # include raw response bodies
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charleschow/futures-bot/internal/config"
	"github.com/charleschow/futures-bot/internal/journal"
)

func main() {
	cfg := config.Load()
	n := flag.Int("n", 10, "number of recent rows to display")
	dbPath := flag.String("db", cfg.JournalPath, "journal database path")
	runID := flag.String("run", "", "show every slice of one TWAP run")
	verbose := flag.Bool("v", false, "print raw exchange responses")
	flag.Parse()

	if _, err := os.Stat(*dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "cannot open %s: %v\n", *dbPath, err)
		os.Exit(1)
	}
	store, err := journal.OpenStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open %s: %v\n", *dbPath, err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	var entries []journal.Entry
	if *runID != "" {
		entries, err = store.TWAPRun(ctx, *runID)
	} else {
		entries, err = store.Recent(ctx, *n)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "query failed: %v\n", err)
		os.Exit(1)
	}

	title := fmt.Sprintf("Order Journal (%s)", *dbPath)
	if *runID != "" {
		title = fmt.Sprintf("TWAP run %s", *runID)
	}
	printEntries(os.Stdout, title, entries, *verbose)
}

func printEntries(w io.Writer, title string, entries []journal.Entry, verbose bool) {
	fmt.Fprintf(w, "=== %s ===\n", title)
	if len(entries) == 0 {
		fmt.Fprintln(w, "  (no rows)")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tCMD\tSYMBOL\tSIDE\tTYPE\tQTY\tPRICE\tORDER\tSTATUS\tRESULT\tMS")
	for _, e := range entries {
		price := e.Price
		if e.StopPrice != "" {
			price = "stop " + e.StopPrice
		}
		cmd := e.Command
		if e.Slice > 0 {
			cmd = fmt.Sprintf("%s#%d", e.Command, e.Slice)
		}
		order := "-"
		if e.OrderID != 0 {
			order = fmt.Sprintf("%d", e.OrderID)
		}
		result := "ok"
		if !e.Success {
			result = e.ErrKind
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			e.ID, e.Ts.Local().Format("01-02 15:04:05"), cmd, e.Symbol, e.Side, e.Type,
			e.Quantity, orDash(price), order, orDash(e.Status), result, e.LatencyMs)
	}
	tw.Flush()

	for _, e := range entries {
		if !e.Success && e.Err != "" {
			fmt.Fprintf(w, "  #%d: %s\n", e.ID, e.Err)
		}
		if verbose && e.Raw != "" {
			fmt.Fprintf(w, "  #%d raw: %s\n", e.ID, e.Raw)
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
