package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/insightlabs/alphawatch/pkg/models"
	"github.com/sirupsen/logrus"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram delivers messages through the Telegram bot API, optionally via an
// HTTP proxy for networks where api.telegram.org is unreachable directly.
type Telegram struct {
	apiBase      string
	botToken     string
	chatID       string
	dashboardURL string
	http         *resty.Client
	logger       *logrus.Logger
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

func NewTelegram(botToken, chatID, proxy, dashboardURL string, logger *logrus.Logger) *Telegram {
	if logger == nil {
		logger = logrus.New()
	}
	httpClient := resty.New().SetTimeout(15 * time.Second)
	if proxy != "" {
		if !strings.Contains(proxy, "://") {
			proxy = "http://" + proxy
		}
		httpClient.SetProxy(proxy)
	}
	return &Telegram{
		apiBase:      telegramAPIBase,
		botToken:     botToken,
		chatID:       chatID,
		dashboardURL: dashboardURL,
		http:         httpClient,
		logger:       logger,
	}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) SendReport(ctx context.Context, report *models.Report) error {
	if report.Empty() {
		return nil
	}
	return t.SendText(ctx, RenderMarkdown(report, t.dashboardURL))
}

func (t *Telegram) SendText(ctx context.Context, text string) error {
	var result telegramResponse
	resp, err := t.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id":    t.chatID,
			"text":       text,
			"parse_mode": "Markdown",
		}).
		SetResult(&result).
		Post(fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken))
	if err != nil {
		return fmt.Errorf("posting telegram message: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("posting telegram message: unexpected status %d", resp.StatusCode())
	}
	if !result.OK {
		return fmt.Errorf("telegram rejected message: %s", result.Description)
	}

	t.logger.Debug("Telegram message delivered")
	return nil
}
