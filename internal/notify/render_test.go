package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/insightlabs/alphawatch/internal/diff"
	"github.com/insightlabs/alphawatch/pkg/models"
	"github.com/stretchr/testify/assert"
)

func position(side models.Side, size float64, leverage *float64) *models.Position {
	return &models.Position{
		ModelID:  "m1",
		Symbol:   "BTC",
		Side:     side,
		Size:     size,
		Leverage: leverage,
	}
}

func TestFormatEvent(t *testing.T) {
	lev3 := models.Float(3)
	lev4 := models.Float(4)

	tests := []struct {
		name  string
		event models.TradeEvent
		want  string
	}{
		{
			name: "open with leverage",
			event: models.TradeEvent{
				Type: models.EventOpen, ModelID: "m1", Symbol: "BTC",
				After: position(models.SideLong, 1.5, models.Float(10)),
			},
			want: "m1 BTC opened long 1.5 (10x)",
		},
		{
			name: "open without leverage",
			event: models.TradeEvent{
				Type: models.EventOpen, ModelID: "m1", Symbol: "BTC",
				After: position(models.SideShort, 2, nil),
			},
			want: "m1 BTC opened short 2",
		},
		{
			name: "close",
			event: models.TradeEvent{
				Type: models.EventClose, ModelID: "m1", Symbol: "BTC",
				Before: position(models.SideLong, 1.5, nil),
			},
			want: "m1 BTC closed long 1.5",
		},
		{
			name: "increase",
			event: models.TradeEvent{
				Type: models.EventIncrease, ModelID: "m1", Symbol: "BTC",
				Before: position(models.SideLong, 1, nil),
				After:  position(models.SideLong, 2.5, nil),
				DeltaSize: 1.5,
			},
			want: "m1 BTC increased long by 1.5 to 2.5",
		},
		{
			name: "decrease",
			event: models.TradeEvent{
				Type: models.EventDecrease, ModelID: "m1", Symbol: "BTC",
				Before: position(models.SideShort, 4, nil),
				After:  position(models.SideShort, 1, nil),
				DeltaSize: -3,
			},
			want: "m1 BTC decreased short by 3 to 1",
		},
		{
			name: "leverage change",
			event: models.TradeEvent{
				Type: models.EventLeverageChange, ModelID: "m1", Symbol: "BTC",
				Before: position(models.SideLong, 10, lev3),
				After:  position(models.SideLong, 10, lev4),
				DeltaLeverage: 1,
			},
			want: "m1 BTC leverage 3x -> 4x",
		},
		{
			name:  "model added",
			event: models.TradeEvent{Type: models.EventModelAdded, ModelID: "m9"},
			want:  "m9 started trading",
		},
		{
			name:  "model removed",
			event: models.TradeEvent{Type: models.EventModelRemoved, ModelID: "m9"},
			want:  "m9 stopped trading",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatEvent(tc.event))
		})
	}
}

func TestRenderMarkdownGroupsAndLinks(t *testing.T) {
	generatedAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	report := diff.Aggregate(generatedAt, []models.TradeEvent{
		{Type: models.EventModelAdded, ModelID: "qwen"},
		{Type: models.EventOpen, ModelID: "claude", Symbol: "BTC", After: position(models.SideLong, 1, nil)},
	})

	out := RenderMarkdown(report, "http://alpha.example.com/")

	assert.Contains(t, out, "2 trade event(s) detected")
	assert.Contains(t, out, "[All positions](http://alpha.example.com/)")
	assert.Contains(t, out, "**claude** [positions](https://nof1.ai/models/claude)")
	assert.Contains(t, out, "🆕 qwen started trading")
	assert.Contains(t, out, "🟢")
	// claude's group comes before qwen's: deterministic model order.
	assert.Less(t, strings.Index(out, "**claude**"), strings.Index(out, "**qwen**"))
}

func TestRenderMarkdownWithoutDashboardLink(t *testing.T) {
	report := diff.Aggregate(time.Now(), []models.TradeEvent{
		{Type: models.EventModelRemoved, ModelID: "m1"},
	})

	out := RenderMarkdown(report, "")

	assert.NotContains(t, out, "All positions")
}
