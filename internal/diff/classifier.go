package diff

import (
	"math"

	"github.com/insightlabs/alphawatch/pkg/models"
)

// Classifier maps raw deltas into typed trade events. Thresholds are injected
// rather than hard-coded so callers can tighten or relax noise suppression.
type Classifier struct {
	thresholds Thresholds
}

func NewClassifier(thresholds Thresholds) *Classifier {
	return &Classifier{thresholds: thresholds}
}

// Classify turns one raw delta into zero, one or two trade events.
//
// A side flip is a hard reversal of net exposure and is reported as a close
// followed by an open, never as a size change. A delta that moves both size
// and leverage yields both events, each carrying only its own delta field.
func (c *Classifier) Classify(d RawDelta) []models.TradeEvent {
	switch d.Kind {
	case DeltaAdded:
		return []models.TradeEvent{{
			Type:    models.EventOpen,
			ModelID: d.Key.ModelID,
			Symbol:  d.Key.Symbol,
			After:   d.After,
		}}

	case DeltaRemoved:
		return []models.TradeEvent{{
			Type:    models.EventClose,
			ModelID: d.Key.ModelID,
			Symbol:  d.Key.Symbol,
			Before:  d.Before,
		}}

	case DeltaChanged:
		if d.Before.Side != d.After.Side {
			return []models.TradeEvent{
				{
					Type:    models.EventClose,
					ModelID: d.Key.ModelID,
					Symbol:  d.Key.Symbol,
					Before:  d.Before,
				},
				{
					Type:    models.EventOpen,
					ModelID: d.Key.ModelID,
					Symbol:  d.Key.Symbol,
					After:   d.After,
				},
			}
		}

		var events []models.TradeEvent

		deltaSize := d.After.Size - d.Before.Size
		if math.Abs(deltaSize) > c.thresholds.SizeEpsilon {
			eventType := models.EventIncrease
			if deltaSize < 0 {
				eventType = models.EventDecrease
			}
			events = append(events, models.TradeEvent{
				Type:      eventType,
				ModelID:   d.Key.ModelID,
				Symbol:    d.Key.Symbol,
				Before:    d.Before,
				After:     d.After,
				DeltaSize: deltaSize,
			})
		}

		if d.Before.Leverage != nil && d.After.Leverage != nil {
			deltaLeverage := *d.After.Leverage - *d.Before.Leverage
			if math.Abs(deltaLeverage) > c.thresholds.LeverageEpsilon {
				events = append(events, models.TradeEvent{
					Type:          models.EventLeverageChange,
					ModelID:       d.Key.ModelID,
					Symbol:        d.Key.Symbol,
					Before:        d.Before,
					After:         d.After,
					DeltaLeverage: deltaLeverage,
				})
			}
		}

		return events
	}

	return nil
}
