package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/insightlabs/alphawatch/pkg/models"
	"github.com/sirupsen/logrus"
)

// WeChat posts markdown messages to a WeChat Work group robot webhook.
type WeChat struct {
	webhookURL   string
	dashboardURL string
	http         *resty.Client
	logger       *logrus.Logger
}

type wechatMessage struct {
	MsgType  string         `json:"msgtype"`
	Markdown wechatMarkdown `json:"markdown"`
}

type wechatMarkdown struct {
	Content string `json:"content"`
}

type wechatResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func NewWeChat(webhookURL, dashboardURL string, logger *logrus.Logger) *WeChat {
	if logger == nil {
		logger = logrus.New()
	}
	return &WeChat{
		webhookURL:   webhookURL,
		dashboardURL: dashboardURL,
		http:         resty.New().SetTimeout(10 * time.Second),
		logger:       logger,
	}
}

func (w *WeChat) Name() string { return "wechat" }

func (w *WeChat) SendReport(ctx context.Context, report *models.Report) error {
	if report.Empty() {
		return nil
	}
	return w.SendText(ctx, RenderMarkdown(report, w.dashboardURL))
}

func (w *WeChat) SendText(ctx context.Context, text string) error {
	var result wechatResponse
	resp, err := w.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(wechatMessage{MsgType: "markdown", Markdown: wechatMarkdown{Content: text}}).
		SetResult(&result).
		Post(w.webhookURL)
	if err != nil {
		return fmt.Errorf("posting wechat message: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("posting wechat message: unexpected status %d", resp.StatusCode())
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("wechat webhook rejected message: %d %s", result.ErrCode, result.ErrMsg)
	}

	w.logger.Debug("WeChat message delivered")
	return nil
}
