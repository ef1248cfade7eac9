package models

import (
	"sort"
	"time"
)

// Snapshot is an immutable point-in-time view of all positions across all
// monitored models. A model may be present with zero open positions, so the
// model-id set is tracked independently of the position map.
type Snapshot struct {
	takenAt   time.Time
	positions map[Key]Position
	models    map[string]struct{}
}

// NewSnapshot copies its inputs so the snapshot cannot be mutated through
// them afterwards. Every position's model id is added to the model set; ids
// in modelIDs cover models reporting no open positions.
func NewSnapshot(takenAt time.Time, modelIDs []string, positions []Position) *Snapshot {
	s := &Snapshot{
		takenAt:   takenAt,
		positions: make(map[Key]Position, len(positions)),
		models:    make(map[string]struct{}, len(modelIDs)),
	}
	for _, id := range modelIDs {
		s.models[id] = struct{}{}
	}
	for _, p := range positions {
		s.positions[p.Key()] = p
		s.models[p.ModelID] = struct{}{}
	}
	return s
}

func (s *Snapshot) TakenAt() time.Time {
	return s.takenAt
}

func (s *Snapshot) Len() int {
	return len(s.positions)
}

func (s *Snapshot) Position(k Key) (Position, bool) {
	p, ok := s.positions[k]
	return p, ok
}

func (s *Snapshot) HasModel(id string) bool {
	_, ok := s.models[id]
	return ok
}

// Keys returns every position key sorted by (model_id, symbol), independent
// of map iteration order.
func (s *Snapshot) Keys() []Key {
	keys := make([]Key, 0, len(s.positions))
	for k := range s.positions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// ModelIDs returns the sorted set of model ids present in the snapshot.
func (s *Snapshot) ModelIDs() []string {
	ids := make([]string, 0, len(s.models))
	for id := range s.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ModelKeys returns the sorted position keys belonging to one model.
func (s *Snapshot) ModelKeys(modelID string) []Key {
	var keys []Key
	for k := range s.positions {
		if k.ModelID == modelID {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}
