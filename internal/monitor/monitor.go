package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/insightlabs/alphawatch/internal/diff"
	"github.com/insightlabs/alphawatch/internal/store"
	"github.com/insightlabs/alphawatch/pkg/models"
	"github.com/insightlabs/alphawatch/pkg/nof1"
	"github.com/sirupsen/logrus"
)

const recentReportLimit = 50

// errorNoticeCooldown limits how often a persistently failing monitor
// re-alerts the chat channels. The first failure after a healthy cycle
// always notifies.
const errorNoticeCooldown = 15 * time.Minute

// Fetcher supplies the current position payload from the upstream API.
type Fetcher interface {
	FetchAccountTotals(ctx context.Context) (*nof1.AccountTotals, error)
}

// Sender delivers notifications; it is the fanout over the configured
// channels.
type Sender interface {
	Configured() bool
	SendReport(ctx context.Context, report *models.Report) error
	SendText(ctx context.Context, text string) error
}

// Monitor drives the periodic cycle: fetch, persist, diff against the
// previous snapshot, notify, rotate. The diff core stays a pure function;
// all scheduling, I/O and snapshot ownership live here.
type Monitor struct {
	fetcher  Fetcher
	store    *store.Store
	analyzer *diff.Analyzer
	notifier Sender
	interval time.Duration
	logger   *logrus.Logger

	mu              sync.RWMutex
	recent          []*models.Report
	hooks           []func(*models.Report)
	lastErrorNotice time.Time
	stopCh          chan struct{}
	stopped         sync.Once
}

func New(fetcher Fetcher, st *store.Store, analyzer *diff.Analyzer, notifier Sender,
	interval time.Duration, logger *logrus.Logger) *Monitor {
	if logger == nil {
		logger = logrus.New()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Monitor{
		fetcher:  fetcher,
		store:    st,
		analyzer: analyzer,
		notifier: notifier,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// AddReportHook registers a callback invoked for every non-empty report.
// Hooks must not block; the websocket feed uses one to push live updates.
func (m *Monitor) AddReportHook(fn func(*models.Report)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// RecentReports returns the most recent non-empty reports, newest first.
func (m *Monitor) RecentReports() []*models.Report {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Report, len(m.recent))
	for i, r := range m.recent {
		out[len(m.recent)-1-i] = r
	}
	return out
}

// Start launches the monitoring loop. Cycles run serially: a new cycle never
// starts before the previous one finished and rotated its snapshot files.
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.WithField("interval", m.interval.String()).Info("Starting position monitor")

	if m.notifier.Configured() {
		if err := m.notifier.SendText(ctx, m.startupMessage()); err != nil {
			m.logger.WithError(err).Warn("Failed to send startup notification")
		}
	}

	go m.run(ctx)
	return nil
}

// Stop halts the loop and sends the shutdown notification.
func (m *Monitor) Stop() {
	m.stopped.Do(func() {
		m.logger.Info("Stopping position monitor")
		close(m.stopCh)

		if m.notifier.Configured() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			msg := fmt.Sprintf("🛑 **AI Trading Monitor stopped**\n⏰ %s",
				time.Now().Format("2006-01-02 15:04:05"))
			if err := m.notifier.SendText(ctx, msg); err != nil {
				m.logger.WithError(err).Warn("Failed to send shutdown notification")
			}
		}
	})
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

func (m *Monitor) runCycle(ctx context.Context) {
	report, err := m.RunOnce(ctx)
	if err != nil {
		m.logger.WithError(err).Error("Monitor cycle failed")
		m.notifyError(ctx, err)
		return
	}
	m.mu.Lock()
	m.lastErrorNotice = time.Time{}
	m.mu.Unlock()
	if !report.Empty() {
		m.logger.WithField("events", report.Total).Info("Monitor cycle completed with events")
	}
}

// notifyError pushes a cycle failure to the chat channels so an operator
// who only watches chat learns the monitor is unhealthy. Repeated failures
// re-alert at most once per cooldown.
func (m *Monitor) notifyError(ctx context.Context, cycleErr error) {
	if !m.notifier.Configured() {
		return
	}

	m.mu.Lock()
	due := time.Since(m.lastErrorNotice) >= errorNoticeCooldown
	if due {
		m.lastErrorNotice = time.Now()
	}
	m.mu.Unlock()
	if !due {
		return
	}

	msg := fmt.Sprintf("❌ **AI Trading Monitor error**\n⏰ %s\n🚨 %s\n\nPlease check the system",
		time.Now().Format("2006-01-02 15:04:05"), cycleErr)
	if err := m.notifier.SendText(ctx, msg); err != nil {
		m.logger.WithError(err).Warn("Failed to send error notification")
	}
}

// RunOnce executes a single monitoring cycle and returns its report. An
// untrusted (empty) upstream payload skips the cycle without rotating, so a
// transient outage can never be misread as every model closing out.
func (m *Monitor) RunOnce(ctx context.Context) (*models.Report, error) {
	totals, err := m.fetcher.FetchAccountTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching positions: %w", err)
	}
	if totals.Empty() {
		m.logger.Warn("Upstream returned no position data, skipping cycle")
		return diff.Aggregate(time.Now(), nil), nil
	}

	fetchedAt := time.Now()
	if err := m.store.SaveCurrent(totals, fetchedAt); err != nil {
		return nil, fmt.Errorf("saving current snapshot: %w", err)
	}

	var prev *models.Snapshot
	if lastTotals := m.store.LoadLast(); lastTotals != nil {
		prev = nof1.BuildSnapshot(lastTotals, timestampOf(lastTotals))
	} else {
		m.logger.Info("No previous snapshot, treating cycle as baseline")
	}
	curr := nof1.BuildSnapshot(totals, fetchedAt)

	report := m.analyzer.Analyze(prev, curr)

	if !report.Empty() {
		m.record(report)
		if m.notifier.Configured() {
			if err := m.notifier.SendReport(ctx, report); err != nil {
				m.logger.WithError(err).Error("Failed to deliver trade notification")
			}
		}
	}

	if err := m.store.Rotate(); err != nil {
		return report, fmt.Errorf("rotating snapshots: %w", err)
	}
	return report, nil
}

// TestNotification sends a test message through every configured channel.
func (m *Monitor) TestNotification(ctx context.Context) error {
	msg := fmt.Sprintf("🧪 **AI Trading Monitor test**\n✅ Notifications are working\n⏰ %s",
		time.Now().Format("2006-01-02 15:04:05"))
	return m.notifier.SendText(ctx, msg)
}

func (m *Monitor) record(report *models.Report) {
	m.mu.Lock()
	m.recent = append(m.recent, report)
	if len(m.recent) > recentReportLimit {
		m.recent = m.recent[len(m.recent)-recentReportLimit:]
	}
	hooks := make([]func(*models.Report), len(m.hooks))
	copy(hooks, m.hooks)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn(report)
	}
}

func (m *Monitor) startupMessage() string {
	return fmt.Sprintf("🚀 **AI Trading Monitor started**\n⏰ %s\n✅ Checking positions every %s",
		time.Now().Format("2006-01-02 15:04:05"), m.interval)
}

func timestampOf(totals *nof1.AccountTotals) time.Time {
	if totals.Timestamp > 0 {
		return time.Unix(int64(totals.Timestamp), 0)
	}
	return time.Time{}
}
