package nof1

// Wire types for the nof1.ai account-totals endpoint. The payload is loosely
// typed upstream, so optional fields stay pointers or zero values and are
// validated when the snapshot is built.

type AccountTotals struct {
	Positions []ModelAccount `json:"positions"`
	FetchTime string         `json:"fetch_time,omitempty"`
	Timestamp float64        `json:"timestamp,omitempty"`
}

// Empty reports whether the payload carries no model data at all. The monitor
// refuses to diff against an empty payload so a transient upstream outage can
// never masquerade as a mass close-out.
func (a *AccountTotals) Empty() bool {
	return a == nil || len(a.Positions) == 0
}

type ModelAccount struct {
	ID          string                  `json:"id"`
	RealizedPnL float64                 `json:"realized_pnl"`
	Positions   map[string]WirePosition `json:"positions"`
}

type WirePosition struct {
	Quantity      float64   `json:"quantity"`
	Leverage      *float64  `json:"leverage,omitempty"`
	EntryPrice    float64   `json:"entry_price,omitempty"`
	CurrentPrice  float64   `json:"current_price,omitempty"`
	UnrealizedPnL float64   `json:"unrealized_pnl,omitempty"`
	Margin        float64   `json:"margin,omitempty"`
	ClosedPnL     float64   `json:"closed_pnl,omitempty"`
	EntryTime     float64   `json:"entry_time,omitempty"`
	ExitPlan      *ExitPlan `json:"exit_plan,omitempty"`
}

type ExitPlan struct {
	ProfitTarget float64 `json:"profit_target,omitempty"`
	StopLoss     float64 `json:"stop_loss,omitempty"`
}
