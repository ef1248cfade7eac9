package diff

import (
	"time"

	"github.com/insightlabs/alphawatch/pkg/models"
	"github.com/sirupsen/logrus"
)

// Analyzer runs the full diff → classify → aggregate pipeline for one cycle.
// It is a pure function of its two input snapshots: no I/O, no locks, no
// state carried between cycles.
type Analyzer struct {
	engine     *Engine
	classifier *Classifier
	monitored  map[string]struct{}
	logger     *logrus.Logger
}

// NewAnalyzer builds the pipeline. monitored limits analysis to the given
// model ids; empty means all models are analyzed.
func NewAnalyzer(thresholds Thresholds, monitored []string, logger *logrus.Logger) *Analyzer {
	if logger == nil {
		logger = logrus.New()
	}
	a := &Analyzer{
		engine:     NewEngine(thresholds, logger),
		classifier: NewClassifier(thresholds),
		logger:     logger,
	}
	if len(monitored) > 0 {
		a.monitored = make(map[string]struct{}, len(monitored))
		for _, id := range monitored {
			a.monitored[id] = struct{}{}
		}
	}
	return a
}

// Analyze compares the two snapshots and returns the grouped trade events.
// A nil previous snapshot is the baseline case and produces an empty report.
// The operation itself never fails; per-key problems surface as warnings on
// the report.
func (a *Analyzer) Analyze(prev, curr *models.Snapshot) *models.Report {
	if curr == nil {
		return Aggregate(time.Time{}, nil)
	}
	generatedAt := curr.TakenAt()

	res := a.engine.Diff(prev, curr)

	events := make([]models.TradeEvent, 0, len(res.Deltas)+len(res.ModelsAdded)+len(res.ModelsRemoved))
	for _, id := range res.ModelsAdded {
		if !a.watches(id) {
			continue
		}
		events = append(events, models.TradeEvent{Type: models.EventModelAdded, ModelID: id})
	}
	for _, id := range res.ModelsRemoved {
		if !a.watches(id) {
			continue
		}
		events = append(events, models.TradeEvent{Type: models.EventModelRemoved, ModelID: id})
	}
	for _, d := range res.Deltas {
		if !a.watches(d.Key.ModelID) {
			continue
		}
		events = append(events, a.classifier.Classify(d)...)
	}

	report := Aggregate(generatedAt, events)
	for _, s := range res.Skipped {
		report.Warnings = append(report.Warnings, s.String())
	}

	if report.Total > 0 {
		a.logger.WithFields(logrus.Fields{
			"events": report.Total,
			"models": len(report.Models),
		}).Info("Detected trade events")
	}

	return report
}

func (a *Analyzer) watches(modelID string) bool {
	if a.monitored == nil {
		return true
	}
	_, ok := a.monitored[modelID]
	return ok
}
