package diff

import (
	"sort"
	"time"

	"github.com/insightlabs/alphawatch/pkg/models"
)

// Aggregate groups events by model for downstream reporting. Within a group,
// model-level events come first and the classifier's per-symbol order is
// preserved. Model groups are ordered lexicographically so identical inputs
// always aggregate to identical output.
func Aggregate(generatedAt time.Time, events []models.TradeEvent) *models.Report {
	report := &models.Report{
		GeneratedAt: generatedAt,
		ByModel:     make(map[string][]models.TradeEvent),
		PerType:     make(map[models.EventType]int),
	}

	for _, e := range events {
		if e.ModelLevel() {
			// Model-level events lead their group.
			report.ByModel[e.ModelID] = append([]models.TradeEvent{e}, report.ByModel[e.ModelID]...)
		} else {
			report.ByModel[e.ModelID] = append(report.ByModel[e.ModelID], e)
		}
		report.PerType[e.Type]++
		report.Total++
	}

	report.Models = make([]string, 0, len(report.ByModel))
	for id := range report.ByModel {
		report.Models = append(report.Models, id)
	}
	sort.Strings(report.Models)

	return report
}
