package models

import (
	"sort"
	"time"
)

// Report is the grouped, ordered view of one cycle's trade events, ready for
// a notifier or the status API.
type Report struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Models      []string                `json:"models"`
	ByModel     map[string][]TradeEvent `json:"by_model"`
	Total       int                     `json:"total"`
	PerType     map[EventType]int       `json:"per_type"`
	// Warnings lists keys that were skipped because their data failed basic
	// validity checks. They never abort a cycle.
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Report) Empty() bool {
	return r.Total == 0
}

// Events flattens the grouped events back into one deterministic sequence,
// following the report's model order.
func (r *Report) Events() []TradeEvent {
	out := make([]TradeEvent, 0, r.Total)
	for _, id := range r.Models {
		out = append(out, r.ByModel[id]...)
	}
	return out
}

// SortedTypes returns the event types present in the report in a stable
// order, for rendering per-type counts.
func (r *Report) SortedTypes() []EventType {
	types := make([]EventType, 0, len(r.PerType))
	for t := range r.PerType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
