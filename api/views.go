package api

import (
	"sort"

	"github.com/insightlabs/alphawatch/pkg/nof1"
)

// PositionsView is the dashboard's shape of the last persisted snapshot:
// models sorted by realized PnL with per-model totals, plus the sorted set of
// symbols seen across all models so tables line up.
type PositionsView struct {
	FetchTime string      `json:"fetch_time,omitempty"`
	Timestamp float64     `json:"timestamp,omitempty"`
	Symbols   []string    `json:"symbols"`
	Models    []ModelView `json:"models"`
}

type ModelView struct {
	ID            string                       `json:"id"`
	RealizedPnL   float64                      `json:"realized_pnl"`
	UnrealizedPnL float64                      `json:"unrealized_pnl"`
	TotalPnL      float64                      `json:"total_pnl"`
	Positions     map[string]nof1.WirePosition `json:"positions"`
}

func buildPositionsView(totals *nof1.AccountTotals) *PositionsView {
	if totals == nil {
		return nil
	}

	view := &PositionsView{
		FetchTime: totals.FetchTime,
		Timestamp: totals.Timestamp,
	}

	symbols := make(map[string]struct{})
	for _, account := range totals.Positions {
		mv := ModelView{
			ID:          account.ID,
			RealizedPnL: account.RealizedPnL,
			Positions:   account.Positions,
		}
		for sym, p := range account.Positions {
			symbols[sym] = struct{}{}
			mv.UnrealizedPnL += p.UnrealizedPnL
		}
		mv.TotalPnL = mv.RealizedPnL + mv.UnrealizedPnL
		view.Models = append(view.Models, mv)
	}

	sort.Slice(view.Models, func(i, j int) bool {
		return view.Models[i].RealizedPnL > view.Models[j].RealizedPnL
	})

	view.Symbols = make([]string, 0, len(symbols))
	for sym := range symbols {
		view.Symbols = append(view.Symbols, sym)
	}
	sort.Strings(view.Symbols)

	return view
}
