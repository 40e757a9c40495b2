package execution

import (
	"strings"
	"sync"

	"github.com/charleschow/futures-bot/internal/config"
	"github.com/charleschow/futures-bot/internal/core/execution/lanes"
)

const fallbackLane = "*"

// LaneRouter maps a symbol to its execution lane.
// Each lane has its own limits, throttle and dedup state.
type LaneRouter struct {
	mu    sync.RWMutex
	lanes map[string]*lanes.Lane // "BTCUSDT" -> Lane, "*" -> fallback
}

func NewLaneRouter() *LaneRouter {
	return &LaneRouter{
		lanes: make(map[string]*lanes.Lane),
	}
}

func (lr *LaneRouter) Register(symbol string, lane *lanes.Lane) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.lanes[strings.ToUpper(symbol)] = lane
}

// Route returns the symbol's lane, then the "*" lane, then nil.
func (lr *LaneRouter) Route(symbol string) *lanes.Lane {
	lr.mu.RLock()
	defer lr.mu.RUnlock()

	if lane, ok := lr.lanes[strings.ToUpper(symbol)]; ok {
		return lane
	}
	return lr.lanes[fallbackLane]
}

// RegisterLanesFromConfig wires one lane per listed symbol plus a fallback
// lane built from the defaults. With ListedOnly the fallback is omitted, so
// unlisted symbols have no lane and are rejected.
func RegisterLanesFromConfig(router *LaneRouter, ol config.OrderLimits) {
	for symbol, sl := range ol.Symbols {
		router.Register(symbol, lanes.NewLane(sl.MaxOrderQty, sl.MaxRunQty, sl.ThrottleMs))
	}
	if !ol.ListedOnly {
		router.Register(fallbackLane, lanes.NewLane(ol.Default.MaxOrderQty, ol.Default.MaxRunQty, ol.Default.ThrottleMs))
	}
}
