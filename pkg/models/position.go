package models

import (
	"fmt"
	"time"
)

type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

// Key uniquely identifies one position slot: a model holds at most one
// open position per symbol at a time.
type Key struct {
	ModelID string `json:"model_id"`
	Symbol  string `json:"symbol"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.ModelID, k.Symbol)
}

// Less orders keys lexicographically by (model_id, symbol).
func (k Key) Less(other Key) bool {
	if k.ModelID != other.ModelID {
		return k.ModelID < other.ModelID
	}
	return k.Symbol < other.Symbol
}

// Position is one open position held by one model for one symbol.
// Leverage is nil when the upstream feed does not report it; it is never
// defaulted to zero or one.
type Position struct {
	ModelID       string    `json:"model_id"`
	Symbol        string    `json:"symbol"`
	Side          Side      `json:"side"`
	Size          float64   `json:"size"`
	Leverage      *float64  `json:"leverage,omitempty"`
	EntryPrice    float64   `json:"entry_price,omitempty"`
	MarkPrice     float64   `json:"mark_price,omitempty"`
	NotionalValue float64   `json:"notional_value,omitempty"`
	UnrealizedPL  float64   `json:"unrealized_pnl,omitempty"`
	AsOf          time.Time `json:"as_of"`
}

func (p Position) Key() Key {
	return Key{ModelID: p.ModelID, Symbol: p.Symbol}
}

// Validate checks basic per-entry validity. Entries that fail are skipped
// by the diff engine rather than aborting the whole cycle.
func (p Position) Validate() error {
	if p.ModelID == "" {
		return fmt.Errorf("empty model id")
	}
	if p.Symbol == "" {
		return fmt.Errorf("empty symbol")
	}
	if !p.Side.Valid() {
		return fmt.Errorf("unknown side %q", p.Side)
	}
	if p.Size <= 0 {
		return fmt.Errorf("non-positive size %v", p.Size)
	}
	if p.Leverage != nil && *p.Leverage <= 0 {
		return fmt.Errorf("non-positive leverage %v", *p.Leverage)
	}
	return nil
}

// Float is a convenience for building optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
