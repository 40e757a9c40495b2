package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type symbolLimitsYAML struct {
	MaxOrderQty string `yaml:"max_order_qty"`
	MaxRunQty   string `yaml:"max_run_qty"`
	ThrottleMs  int64  `yaml:"throttle_ms"`
}

type orderLimitsYAML struct {
	ListedOnly bool                        `yaml:"listed_only"`
	Default    symbolLimitsYAML            `yaml:"default"`
	Symbols    map[string]symbolLimitsYAML `yaml:"symbols"`
}

// SymbolLimits caps a single symbol. Zero quantities mean "no cap".
type SymbolLimits struct {
	MaxOrderQty decimal.Decimal
	MaxRunQty   decimal.Decimal
	ThrottleMs  int64
}

type OrderLimits struct {
	// ListedOnly rejects symbols that have no entry under Symbols.
	ListedOnly bool
	Default    SymbolLimits
	Symbols    map[string]SymbolLimits
}

// LoadOrderLimits reads the YAML limits file. A missing file yields empty
// limits, which allow everything.
func LoadOrderLimits(path string) (OrderLimits, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return OrderLimits{}, nil
	}
	if err != nil {
		return OrderLimits{}, fmt.Errorf("read order limits: %w", err)
	}
	return ParseOrderLimits(data)
}

func ParseOrderLimits(data []byte) (OrderLimits, error) {
	var raw orderLimitsYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return OrderLimits{}, fmt.Errorf("parse order limits: %w", err)
	}

	def, err := raw.Default.parse()
	if err != nil {
		return OrderLimits{}, fmt.Errorf("default limits: %w", err)
	}

	limits := OrderLimits{
		ListedOnly: raw.ListedOnly,
		Default:    def,
		Symbols:    make(map[string]SymbolLimits, len(raw.Symbols)),
	}
	for sym, sl := range raw.Symbols {
		parsed, err := sl.parse()
		if err != nil {
			return OrderLimits{}, fmt.Errorf("limits for %s: %w", sym, err)
		}
		limits.Symbols[strings.ToUpper(sym)] = parsed
	}
	return limits, nil
}

func (y symbolLimitsYAML) parse() (SymbolLimits, error) {
	orderQty, err := parseQty(y.MaxOrderQty)
	if err != nil {
		return SymbolLimits{}, fmt.Errorf("max_order_qty: %w", err)
	}
	runQty, err := parseQty(y.MaxRunQty)
	if err != nil {
		return SymbolLimits{}, fmt.Errorf("max_run_qty: %w", err)
	}
	if y.ThrottleMs < 0 {
		return SymbolLimits{}, fmt.Errorf("throttle_ms must be >= 0")
	}
	return SymbolLimits{MaxOrderQty: orderQty, MaxRunQty: runQty, ThrottleMs: y.ThrottleMs}, nil
}

func parseQty(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("must be >= 0, got %s", d)
	}
	return d, nil
}

// SymbolLimit returns the explicit entry for symbol, if any.
func (ol OrderLimits) SymbolLimit(symbol string) (SymbolLimits, bool) {
	sl, ok := ol.Symbols[strings.ToUpper(symbol)]
	return sl, ok
}
