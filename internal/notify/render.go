package notify

import (
	"fmt"
	"strings"

	"github.com/insightlabs/alphawatch/pkg/models"
)

const modelLinkBase = "https://nof1.ai/models/"

// RenderMarkdown turns one cycle's report into the markdown message shared by
// all channels: a header with the event count, then events grouped per model
// with a detail link.
func RenderMarkdown(report *models.Report, dashboardURL string) string {
	var b strings.Builder

	b.WriteString("🚨 **AI Trading Monitor**\n")
	fmt.Fprintf(&b, "⏰ %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "📊 %d trade event(s) detected\n", report.Total)
	if dashboardURL != "" {
		fmt.Fprintf(&b, "🔗 [All positions](%s)\n", dashboardURL)
	}
	b.WriteString("\n")

	for _, modelID := range report.Models {
		fmt.Fprintf(&b, "🤖 **%s** [positions](%s%s)\n", modelID, modelLinkBase, modelID)
		for _, e := range report.ByModel[modelID] {
			fmt.Fprintf(&b, "  %s %s\n", eventEmoji(e.Type), FormatEvent(e))
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatEvent renders one event as a single human-readable line.
func FormatEvent(e models.TradeEvent) string {
	switch e.Type {
	case models.EventModelAdded:
		return fmt.Sprintf("%s started trading", e.ModelID)
	case models.EventModelRemoved:
		return fmt.Sprintf("%s stopped trading", e.ModelID)
	case models.EventOpen:
		return fmt.Sprintf("%s %s opened %s %s%s",
			e.ModelID, e.Symbol, e.After.Side, formatSize(e.After.Size), leverageSuffix(e.After))
	case models.EventClose:
		return fmt.Sprintf("%s %s closed %s %s",
			e.ModelID, e.Symbol, e.Before.Side, formatSize(e.Before.Size))
	case models.EventIncrease:
		return fmt.Sprintf("%s %s increased %s by %s to %s",
			e.ModelID, e.Symbol, e.After.Side, formatSize(e.DeltaSize), formatSize(e.After.Size))
	case models.EventDecrease:
		return fmt.Sprintf("%s %s decreased %s by %s to %s",
			e.ModelID, e.Symbol, e.After.Side, formatSize(-e.DeltaSize), formatSize(e.After.Size))
	case models.EventLeverageChange:
		return fmt.Sprintf("%s %s leverage %sx -> %sx",
			e.ModelID, e.Symbol, formatSize(*e.Before.Leverage), formatSize(*e.After.Leverage))
	}
	return fmt.Sprintf("%s %s %s", e.ModelID, e.Symbol, e.Type)
}

func eventEmoji(t models.EventType) string {
	switch t {
	case models.EventOpen:
		return "🟢"
	case models.EventClose:
		return "🔴"
	case models.EventIncrease:
		return "📈"
	case models.EventDecrease:
		return "📉"
	case models.EventLeverageChange:
		return "⚙️"
	case models.EventModelAdded:
		return "🆕"
	case models.EventModelRemoved:
		return "❌"
	}
	return "ℹ️"
}

func formatSize(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", v), "0"), ".")
}

func leverageSuffix(p *models.Position) string {
	if p == nil || p.Leverage == nil {
		return ""
	}
	return fmt.Sprintf(" (%sx)", formatSize(*p.Leverage))
}
