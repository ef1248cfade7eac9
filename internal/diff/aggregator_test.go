package diff

import (
	"testing"

	"github.com/insightlabs/alphawatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateGroupsByModel(t *testing.T) {
	events := []models.TradeEvent{
		{Type: models.EventOpen, ModelID: "m2", Symbol: "BTC"},
		{Type: models.EventClose, ModelID: "m1", Symbol: "ETH"},
		{Type: models.EventIncrease, ModelID: "m2", Symbol: "SOL", DeltaSize: 1},
	}

	report := Aggregate(testTime, events)

	assert.Equal(t, []string{"m1", "m2"}, report.Models)
	assert.Len(t, report.ByModel["m1"], 1)
	assert.Len(t, report.ByModel["m2"], 2)
	assert.Equal(t, "BTC", report.ByModel["m2"][0].Symbol)
	assert.Equal(t, "SOL", report.ByModel["m2"][1].Symbol)
}

func TestAggregateModelLevelEventsLeadTheirGroup(t *testing.T) {
	events := []models.TradeEvent{
		{Type: models.EventOpen, ModelID: "m1", Symbol: "BTC"},
		{Type: models.EventModelRemoved, ModelID: "m1"},
	}

	report := Aggregate(testTime, events)

	require.Len(t, report.ByModel["m1"], 2)
	assert.Equal(t, models.EventModelRemoved, report.ByModel["m1"][0].Type)
	assert.Equal(t, models.EventOpen, report.ByModel["m1"][1].Type)
}

func TestAggregateCountInvariant(t *testing.T) {
	events := []models.TradeEvent{
		{Type: models.EventOpen, ModelID: "m1", Symbol: "BTC"},
		{Type: models.EventOpen, ModelID: "m2", Symbol: "BTC"},
		{Type: models.EventClose, ModelID: "m1", Symbol: "ETH"},
		{Type: models.EventLeverageChange, ModelID: "m3", Symbol: "SOL", DeltaLeverage: 2},
		{Type: models.EventModelAdded, ModelID: "m4"},
	}

	report := Aggregate(testTime, events)

	assert.Equal(t, len(events), report.Total)
	assert.Equal(t, len(events), len(report.Events()))

	sum := 0
	for _, n := range report.PerType {
		sum += n
	}
	assert.Equal(t, report.Total, sum)
	assert.Equal(t, 2, report.PerType[models.EventOpen])
}

func TestAggregateEmpty(t *testing.T) {
	report := Aggregate(testTime, nil)

	assert.True(t, report.Empty())
	assert.Empty(t, report.Models)
	assert.Empty(t, report.Events())
}
