package notify

import (
	"context"
	"fmt"

	"github.com/insightlabs/alphawatch/pkg/models"
	"github.com/sirupsen/logrus"
)

// Notifier delivers rendered reports to one chat channel.
type Notifier interface {
	Name() string
	SendReport(ctx context.Context, report *models.Report) error
	SendText(ctx context.Context, text string) error
}

// Fanout sends to every configured channel. A delivery counts as successful
// when at least one channel accepts it; individual channel failures are
// logged and do not stop the others.
type Fanout struct {
	notifiers []Notifier
	logger    *logrus.Logger
}

func NewFanout(logger *logrus.Logger, notifiers ...Notifier) *Fanout {
	if logger == nil {
		logger = logrus.New()
	}
	return &Fanout{notifiers: notifiers, logger: logger}
}

func (f *Fanout) Configured() bool {
	return len(f.notifiers) > 0
}

func (f *Fanout) SendReport(ctx context.Context, report *models.Report) error {
	return f.send(ctx, func(n Notifier) error { return n.SendReport(ctx, report) })
}

func (f *Fanout) SendText(ctx context.Context, text string) error {
	return f.send(ctx, func(n Notifier) error { return n.SendText(ctx, text) })
}

func (f *Fanout) send(ctx context.Context, deliver func(Notifier) error) error {
	if len(f.notifiers) == 0 {
		return fmt.Errorf("no notification channels configured")
	}

	delivered := 0
	for _, n := range f.notifiers {
		if err := deliver(n); err != nil {
			f.logger.WithError(err).WithField("channel", n.Name()).Error("Notification delivery failed")
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return fmt.Errorf("all %d notification channels failed", len(f.notifiers))
	}
	return nil
}
