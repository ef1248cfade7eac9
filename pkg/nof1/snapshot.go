package nof1

import (
	"math"
	"time"

	"github.com/insightlabs/alphawatch/pkg/models"
)

// BuildSnapshot converts the wire payload into an immutable position
// snapshot. The sign of quantity encodes the side: positive is long,
// negative is short. Entries are carried over as-is; per-entry validity
// (non-zero size and so on) is the diff engine's concern, so a malformed
// entry surfaces as a skipped-key warning instead of disappearing here.
func BuildSnapshot(totals *AccountTotals, takenAt time.Time) *models.Snapshot {
	if totals == nil {
		return models.NewSnapshot(takenAt, nil, nil)
	}

	modelIDs := make([]string, 0, len(totals.Positions))
	var positions []models.Position

	for _, account := range totals.Positions {
		modelIDs = append(modelIDs, account.ID)
		for symbol, wp := range account.Positions {
			positions = append(positions, buildPosition(account.ID, symbol, wp, takenAt))
		}
	}

	return models.NewSnapshot(takenAt, modelIDs, positions)
}

func buildPosition(modelID, symbol string, wp WirePosition, takenAt time.Time) models.Position {
	side := models.SideLong
	if wp.Quantity < 0 {
		side = models.SideShort
	}
	size := math.Abs(wp.Quantity)

	return models.Position{
		ModelID:       modelID,
		Symbol:        symbol,
		Side:          side,
		Size:          size,
		Leverage:      wp.Leverage,
		EntryPrice:    wp.EntryPrice,
		MarkPrice:     wp.CurrentPrice,
		NotionalValue: size * wp.CurrentPrice,
		UnrealizedPL:  wp.UnrealizedPnL,
		AsOf:          takenAt,
	}
}
