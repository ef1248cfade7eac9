package models

type EventType string

const (
	EventModelAdded     EventType = "model_added"
	EventModelRemoved   EventType = "model_removed"
	EventOpen           EventType = "position_opened"
	EventClose          EventType = "position_closed"
	EventIncrease       EventType = "position_increased"
	EventDecrease       EventType = "position_decreased"
	EventLeverageChange EventType = "leverage_changed"
)

// TradeEvent describes one detected change between two snapshots.
//
// Symbol is empty for model-level events. Before is nil for opens and model
// additions, After is nil for closes and model removals. DeltaSize is set
// only for increase/decrease events, DeltaLeverage only for leverage changes.
type TradeEvent struct {
	Type          EventType `json:"type"`
	ModelID       string    `json:"model_id"`
	Symbol        string    `json:"symbol,omitempty"`
	Before        *Position `json:"before,omitempty"`
	After         *Position `json:"after,omitempty"`
	DeltaSize     float64   `json:"delta_size,omitempty"`
	DeltaLeverage float64   `json:"delta_leverage,omitempty"`
}

// ModelLevel reports whether the event concerns a whole model rather than a
// single position slot.
func (e TradeEvent) ModelLevel() bool {
	return e.Type == EventModelAdded || e.Type == EventModelRemoved
}
