package diff

import (
	"fmt"
	"math"
	"sort"

	"github.com/insightlabs/alphawatch/pkg/models"
	"github.com/sirupsen/logrus"
)

// Thresholds are the minimum magnitudes a numeric field must move before the
// change is considered real rather than floating-point or reporting noise.
type Thresholds struct {
	SizeEpsilon     float64
	LeverageEpsilon float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		SizeEpsilon:     1e-9,
		LeverageEpsilon: 1e-9,
	}
}

type DeltaKind string

const (
	// DeltaAdded means the key exists only in the current snapshot.
	DeltaAdded DeltaKind = "added"
	// DeltaRemoved means the key exists only in the previous snapshot.
	DeltaRemoved DeltaKind = "removed"
	// DeltaChanged means the key exists in both snapshots and at least one
	// field moved beyond its threshold.
	DeltaChanged DeltaKind = "changed"
)

// RawDelta is the per-key comparison result before semantic classification.
type RawDelta struct {
	Key    models.Key
	Kind   DeltaKind
	Before *models.Position
	After  *models.Position
}

// SkippedKey records one entry that failed basic validity checks and was
// excluded from the diff. One bad entry never aborts a cycle.
type SkippedKey struct {
	Key    models.Key
	Reason string
}

func (s SkippedKey) String() string {
	return fmt.Sprintf("%s: %s", s.Key, s.Reason)
}

// Result is the keyed delta between two snapshots. Keys belonging to models
// that appeared or disappeared wholesale are reported through ModelsAdded and
// ModelsRemoved instead of per-symbol deltas.
type Result struct {
	Deltas        []RawDelta
	ModelsAdded   []string
	ModelsRemoved []string
	Skipped       []SkippedKey
}

func (r Result) Empty() bool {
	return len(r.Deltas) == 0 && len(r.ModelsAdded) == 0 && len(r.ModelsRemoved) == 0
}

// Engine computes the keyed delta between two snapshots. It is stateless and
// performs no I/O beyond warning logs for skipped entries.
type Engine struct {
	thresholds Thresholds
	logger     *logrus.Logger
}

func NewEngine(thresholds Thresholds, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{thresholds: thresholds, logger: logger}
}

// Diff compares two snapshots and returns the per-key and per-model deltas in
// deterministic (model_id, symbol) order. A nil previous snapshot is the
// first-observation baseline and yields an empty result, never an error.
func (e *Engine) Diff(prev, curr *models.Snapshot) Result {
	var res Result
	if prev == nil || curr == nil {
		return res
	}

	added, removed := modelDeltas(prev, curr)
	res.ModelsAdded = added
	res.ModelsRemoved = removed

	skipModels := make(map[string]struct{}, len(added)+len(removed))
	for _, id := range added {
		skipModels[id] = struct{}{}
	}
	for _, id := range removed {
		skipModels[id] = struct{}{}
	}

	for _, k := range unionKeys(prev, curr) {
		if _, ok := skipModels[k.ModelID]; ok {
			continue
		}

		before, hadBefore := prev.Position(k)
		after, hasAfter := curr.Position(k)

		switch {
		case !hadBefore && hasAfter:
			if err := after.Validate(); err != nil {
				res.Skipped = append(res.Skipped, e.skip(k, err))
				continue
			}
			p := after
			res.Deltas = append(res.Deltas, RawDelta{Key: k, Kind: DeltaAdded, After: &p})

		case hadBefore && !hasAfter:
			if err := before.Validate(); err != nil {
				res.Skipped = append(res.Skipped, e.skip(k, err))
				continue
			}
			p := before
			res.Deltas = append(res.Deltas, RawDelta{Key: k, Kind: DeltaRemoved, Before: &p})

		default:
			if err := before.Validate(); err != nil {
				res.Skipped = append(res.Skipped, e.skip(k, err))
				continue
			}
			if err := after.Validate(); err != nil {
				res.Skipped = append(res.Skipped, e.skip(k, err))
				continue
			}
			if !e.changed(before, after) {
				continue
			}
			b, a := before, after
			res.Deltas = append(res.Deltas, RawDelta{Key: k, Kind: DeltaChanged, Before: &b, After: &a})
		}
	}

	return res
}

// changed reports whether any classifiable field moved beyond its threshold.
// Leverage is compared only when both snapshots report it.
func (e *Engine) changed(before, after models.Position) bool {
	if before.Side != after.Side {
		return true
	}
	if math.Abs(after.Size-before.Size) > e.thresholds.SizeEpsilon {
		return true
	}
	if before.Leverage != nil && after.Leverage != nil &&
		math.Abs(*after.Leverage-*before.Leverage) > e.thresholds.LeverageEpsilon {
		return true
	}
	return false
}

func (e *Engine) skip(k models.Key, err error) SkippedKey {
	e.logger.WithFields(logrus.Fields{
		"model_id": k.ModelID,
		"symbol":   k.Symbol,
	}).WithError(err).Warn("Skipping malformed position entry")
	return SkippedKey{Key: k, Reason: err.Error()}
}

// modelDeltas returns the sorted model ids present only in the current
// snapshot and only in the previous one. Membership is decided by the
// snapshot's model set, so a model reporting zero positions still counts as
// present.
func modelDeltas(prev, curr *models.Snapshot) (added, removed []string) {
	for _, id := range curr.ModelIDs() {
		if !prev.HasModel(id) {
			added = append(added, id)
		}
	}
	for _, id := range prev.ModelIDs() {
		if !curr.HasModel(id) {
			removed = append(removed, id)
		}
	}
	return added, removed
}

func unionKeys(prev, curr *models.Snapshot) []models.Key {
	seen := make(map[models.Key]struct{}, prev.Len()+curr.Len())
	keys := make([]models.Key, 0, prev.Len()+curr.Len())
	for _, k := range prev.Keys() {
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for _, k := range curr.Keys() {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}
