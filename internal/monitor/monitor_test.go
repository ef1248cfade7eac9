package monitor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/insightlabs/alphawatch/internal/diff"
	"github.com/insightlabs/alphawatch/internal/store"
	"github.com/insightlabs/alphawatch/pkg/models"
	"github.com/insightlabs/alphawatch/pkg/nof1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	payloads []*nof1.AccountTotals
	err      error
	calls    int
}

func (f *fakeFetcher) FetchAccountTotals(ctx context.Context) (*nof1.AccountTotals, error) {
	if f.err != nil {
		return nil, f.err
	}
	i := f.calls
	if i >= len(f.payloads) {
		i = len(f.payloads) - 1
	}
	f.calls++
	return f.payloads[i], nil
}

type fakeSender struct {
	configured bool
	reports    []*models.Report
	texts      []string
}

func (s *fakeSender) Configured() bool { return s.configured }

func (s *fakeSender) SendReport(ctx context.Context, report *models.Report) error {
	s.reports = append(s.reports, report)
	return nil
}

func (s *fakeSender) SendText(ctx context.Context, text string) error {
	s.texts = append(s.texts, text)
	return nil
}

func payload(quantities map[string]map[string]float64) *nof1.AccountTotals {
	totals := &nof1.AccountTotals{}
	for id, positions := range quantities {
		account := nof1.ModelAccount{ID: id, Positions: map[string]nof1.WirePosition{}}
		for sym, qty := range positions {
			account.Positions[sym] = nof1.WirePosition{Quantity: qty}
		}
		totals.Positions = append(totals.Positions, account)
	}
	return totals
}

func newTestMonitor(t *testing.T, fetcher Fetcher, sender Sender) *Monitor {
	t.Helper()
	st := store.New(t.TempDir(), false, nil)
	analyzer := diff.NewAnalyzer(diff.DefaultThresholds(), nil, nil)
	return New(fetcher, st, analyzer, sender, time.Minute, nil)
}

func TestRunOnceBaselineThenDiff(t *testing.T) {
	fetcher := &fakeFetcher{payloads: []*nof1.AccountTotals{
		payload(map[string]map[string]float64{"m1": {"BTC": 1.0}}),
		payload(map[string]map[string]float64{"m1": {"BTC": 2.5}}),
	}}
	sender := &fakeSender{configured: true}
	m := newTestMonitor(t, fetcher, sender)

	// First cycle: nothing to compare against.
	report, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.Empty(t, sender.reports)

	// Second cycle: the size increase surfaces and is notified.
	report, err = m.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Total)
	assert.Equal(t, models.EventIncrease, report.ByModel["m1"][0].Type)
	require.Len(t, sender.reports, 1)
	assert.Same(t, report, sender.reports[0])
}

func TestRunOnceIdenticalPayloadsProduceNothing(t *testing.T) {
	fetcher := &fakeFetcher{payloads: []*nof1.AccountTotals{
		payload(map[string]map[string]float64{"m1": {"BTC": 1.0}}),
	}}
	sender := &fakeSender{configured: true}
	m := newTestMonitor(t, fetcher, sender)

	for i := 0; i < 3; i++ {
		report, err := m.RunOnce(context.Background())
		require.NoError(t, err)
		if i > 0 {
			assert.True(t, report.Empty())
		}
	}
	assert.Empty(t, sender.reports)
}

func TestRunOnceSkipsEmptyUpstreamPayload(t *testing.T) {
	fetcher := &fakeFetcher{payloads: []*nof1.AccountTotals{
		payload(map[string]map[string]float64{"m1": {"BTC": 1.0}}),
		{}, // upstream outage
		payload(map[string]map[string]float64{"m1": {"BTC": 1.0}}),
	}}
	sender := &fakeSender{configured: true}
	m := newTestMonitor(t, fetcher, sender)

	_, err := m.RunOnce(context.Background())
	require.NoError(t, err)

	// The empty payload must not rotate state or report mass closures.
	report, err := m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Empty())

	report, err = m.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Empty(), "no false closures after the outage")
	assert.Empty(t, sender.reports)
}

func TestRunOnceFetchError(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("connection refused")}
	m := newTestMonitor(t, fetcher, &fakeSender{})

	_, err := m.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestCycleFailureNotifiesChannels(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("upstream down")}
	sender := &fakeSender{configured: true}
	m := newTestMonitor(t, fetcher, sender)
	ctx := context.Background()

	m.runCycle(ctx)
	require.Len(t, sender.texts, 1)
	assert.Contains(t, sender.texts[0], "Monitor error")
	assert.Contains(t, sender.texts[0], "upstream down")

	// Still failing inside the cooldown: no repeat alert.
	m.runCycle(ctx)
	assert.Len(t, sender.texts, 1)

	// A healthy cycle re-arms the alert for the next failure.
	fetcher.err = nil
	fetcher.payloads = []*nof1.AccountTotals{
		payload(map[string]map[string]float64{"m1": {"BTC": 1.0}}),
	}
	m.runCycle(ctx)
	fetcher.err = fmt.Errorf("upstream down again")
	m.runCycle(ctx)
	require.Len(t, sender.texts, 2)
	assert.Contains(t, sender.texts[1], "upstream down again")
}

func TestCycleFailureWithoutChannelsStaysQuiet(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("upstream down")}
	sender := &fakeSender{}
	m := newTestMonitor(t, fetcher, sender)

	m.runCycle(context.Background())
	assert.Empty(t, sender.texts)
}

func TestRecentReportsAndHooks(t *testing.T) {
	fetcher := &fakeFetcher{payloads: []*nof1.AccountTotals{
		payload(map[string]map[string]float64{"m1": {"BTC": 1.0}}),
		payload(map[string]map[string]float64{"m1": {"BTC": 2.0}}),
		payload(map[string]map[string]float64{"m1": {"BTC": 3.0}}),
	}}
	m := newTestMonitor(t, fetcher, &fakeSender{})

	var hooked []*models.Report
	m.AddReportHook(func(r *models.Report) { hooked = append(hooked, r) })

	for i := 0; i < 3; i++ {
		_, err := m.RunOnce(context.Background())
		require.NoError(t, err)
	}

	recent := m.RecentReports()
	require.Len(t, recent, 2)
	// Newest first.
	assert.InDelta(t, 1.0, recent[0].ByModel["m1"][0].DeltaSize, 1e-12)
	assert.Len(t, hooked, 2)
}

func TestStartAndStopNotifications(t *testing.T) {
	fetcher := &fakeFetcher{payloads: []*nof1.AccountTotals{
		payload(map[string]map[string]float64{"m1": {"BTC": 1.0}}),
	}}
	sender := &fakeSender{configured: true}
	m := newTestMonitor(t, fetcher, sender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, m.Start(ctx))
	m.Stop()
	m.Stop() // idempotent

	require.GreaterOrEqual(t, len(sender.texts), 2)
	assert.Contains(t, sender.texts[0], "started")
	assert.Contains(t, sender.texts[len(sender.texts)-1], "stopped")
}

func TestTestNotification(t *testing.T) {
	sender := &fakeSender{configured: true}
	m := newTestMonitor(t, &fakeFetcher{payloads: []*nof1.AccountTotals{{}}}, sender)

	require.NoError(t, m.TestNotification(context.Background()))
	require.Len(t, sender.texts, 1)
	assert.Contains(t, sender.texts[0], "test")
}
