package diff

import (
	"testing"
	"time"

	"github.com/insightlabs/alphawatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func pos(modelID, symbol string, side models.Side, size float64, leverage *float64) models.Position {
	return models.Position{
		ModelID:  modelID,
		Symbol:   symbol,
		Side:     side,
		Size:     size,
		Leverage: leverage,
		AsOf:     testTime,
	}
}

func snap(positions ...models.Position) *models.Snapshot {
	return models.NewSnapshot(testTime, nil, positions)
}

func TestDiffIdenticalSnapshotsIsEmpty(t *testing.T) {
	s := snap(
		pos("m1", "BTC", models.SideLong, 1.0, models.Float(5)),
		pos("m1", "ETH", models.SideShort, 2.0, nil),
		pos("m2", "SOL", models.SideLong, 10, models.Float(3)),
	)

	res := NewEngine(DefaultThresholds(), nil).Diff(s, s)

	assert.True(t, res.Empty())
	assert.Empty(t, res.Skipped)
}

func TestDiffNilPreviousIsBaseline(t *testing.T) {
	s := snap(pos("m1", "BTC", models.SideLong, 1.0, nil))

	res := NewEngine(DefaultThresholds(), nil).Diff(nil, s)

	assert.True(t, res.Empty())
}

func TestDiffRemovedKeyYieldsSingleRemoval(t *testing.T) {
	prev := snap(
		pos("m1", "BTC", models.SideLong, 1.0, nil),
		pos("m1", "ETH", models.SideLong, 2.0, nil),
	)
	curr := snap(pos("m1", "ETH", models.SideLong, 2.0, nil))

	res := NewEngine(DefaultThresholds(), nil).Diff(prev, curr)

	require.Len(t, res.Deltas, 1)
	assert.Equal(t, DeltaRemoved, res.Deltas[0].Kind)
	assert.Equal(t, models.Key{ModelID: "m1", Symbol: "BTC"}, res.Deltas[0].Key)
	assert.Empty(t, res.ModelsAdded)
	assert.Empty(t, res.ModelsRemoved)
}

func TestDiffOrderIsDeterministic(t *testing.T) {
	prev := snap(
		pos("m2", "ETH", models.SideLong, 1, nil),
		pos("m1", "SOL", models.SideLong, 1, nil),
		pos("m1", "BTC", models.SideLong, 1, nil),
	)
	curr := snap(
		pos("m2", "ETH", models.SideLong, 5, nil),
		pos("m1", "SOL", models.SideLong, 5, nil),
		pos("m1", "BTC", models.SideLong, 5, nil),
	)

	engine := NewEngine(DefaultThresholds(), nil)
	first := engine.Diff(prev, curr)
	second := engine.Diff(prev, curr)

	require.Len(t, first.Deltas, 3)
	assert.Equal(t, models.Key{ModelID: "m1", Symbol: "BTC"}, first.Deltas[0].Key)
	assert.Equal(t, models.Key{ModelID: "m1", Symbol: "SOL"}, first.Deltas[1].Key)
	assert.Equal(t, models.Key{ModelID: "m2", Symbol: "ETH"}, first.Deltas[2].Key)
	assert.Equal(t, first, second)
}

func TestDiffSuppressesSubEpsilonNoise(t *testing.T) {
	prev := snap(pos("m1", "BTC", models.SideLong, 1.0, models.Float(5)))
	curr := snap(pos("m1", "BTC", models.SideLong, 1.0+1e-12, models.Float(5+1e-12)))

	res := NewEngine(DefaultThresholds(), nil).Diff(prev, curr)

	assert.True(t, res.Empty())
}

func TestDiffModelAddedSuppressesPerSymbolDeltas(t *testing.T) {
	prev := snap(pos("m1", "BTC", models.SideLong, 1, nil))
	curr := snap(
		pos("m1", "BTC", models.SideLong, 1, nil),
		pos("m2", "BTC", models.SideLong, 3, nil),
		pos("m2", "ETH", models.SideShort, 4, nil),
	)

	res := NewEngine(DefaultThresholds(), nil).Diff(prev, curr)

	assert.Equal(t, []string{"m2"}, res.ModelsAdded)
	assert.Empty(t, res.Deltas, "new model's positions must not surface as per-symbol deltas")
}

func TestDiffModelRemoved(t *testing.T) {
	prev := snap(
		pos("m1", "BTC", models.SideLong, 1, nil),
		pos("m2", "ETH", models.SideShort, 4, nil),
	)
	curr := snap(pos("m1", "BTC", models.SideLong, 1, nil))

	res := NewEngine(DefaultThresholds(), nil).Diff(prev, curr)

	assert.Equal(t, []string{"m2"}, res.ModelsRemoved)
	assert.Empty(t, res.Deltas)
}

func TestDiffExistingModelSymbolChurnIsPerSymbol(t *testing.T) {
	// A model already present that adds one symbol and drops another gets
	// per-symbol deltas, not a model-level one.
	prev := snap(
		pos("m1", "BTC", models.SideLong, 1, nil),
		pos("m1", "ETH", models.SideLong, 2, nil),
	)
	curr := snap(
		pos("m1", "BTC", models.SideLong, 1, nil),
		pos("m1", "SOL", models.SideShort, 3, nil),
	)

	res := NewEngine(DefaultThresholds(), nil).Diff(prev, curr)

	assert.Empty(t, res.ModelsAdded)
	assert.Empty(t, res.ModelsRemoved)
	require.Len(t, res.Deltas, 2)
	assert.Equal(t, DeltaRemoved, res.Deltas[0].Kind)
	assert.Equal(t, "ETH", res.Deltas[0].Key.Symbol)
	assert.Equal(t, DeltaAdded, res.Deltas[1].Kind)
	assert.Equal(t, "SOL", res.Deltas[1].Key.Symbol)
}

func TestDiffZeroPositionModelCountsAsPresent(t *testing.T) {
	prev := models.NewSnapshot(testTime, []string{"m1", "m2"}, []models.Position{
		pos("m1", "BTC", models.SideLong, 1, nil),
	})
	curr := models.NewSnapshot(testTime, []string{"m1", "m2"}, []models.Position{
		pos("m1", "BTC", models.SideLong, 1, nil),
		pos("m2", "ETH", models.SideLong, 2, nil),
	})

	res := NewEngine(DefaultThresholds(), nil).Diff(prev, curr)

	// m2 was already present (with zero positions), so its first position is
	// a plain open, not a model addition.
	assert.Empty(t, res.ModelsAdded)
	require.Len(t, res.Deltas, 1)
	assert.Equal(t, DeltaAdded, res.Deltas[0].Kind)
}

func TestDiffSkipsMalformedEntries(t *testing.T) {
	prev := snap(pos("m1", "BTC", models.SideLong, 1, nil))
	curr := snap(
		pos("m1", "BTC", models.SideLong, 1, nil),
		pos("m1", "ETH", models.Side("sideways"), 2, nil),
		pos("m1", "SOL", models.SideLong, -3, nil),
		pos("m1", "XRP", models.SideShort, 4, nil),
	)

	res := NewEngine(DefaultThresholds(), nil).Diff(prev, curr)

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, models.Key{ModelID: "m1", Symbol: "ETH"}, res.Skipped[0].Key)
	assert.Equal(t, models.Key{ModelID: "m1", Symbol: "SOL"}, res.Skipped[1].Key)

	// The healthy entry still produces its delta.
	require.Len(t, res.Deltas, 1)
	assert.Equal(t, "XRP", res.Deltas[0].Key.Symbol)
}

func TestDiffLeverageAppearingIsNotAChange(t *testing.T) {
	prev := snap(pos("m1", "BTC", models.SideLong, 1, nil))
	curr := snap(pos("m1", "BTC", models.SideLong, 1, models.Float(5)))

	res := NewEngine(DefaultThresholds(), nil).Diff(prev, curr)

	assert.Empty(t, res.Deltas, "unreported leverage must be treated as absent, not zero")
}
