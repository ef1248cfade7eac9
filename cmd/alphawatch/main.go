package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/insightlabs/alphawatch/api"
	"github.com/insightlabs/alphawatch/internal/config"
	"github.com/insightlabs/alphawatch/internal/diff"
	"github.com/insightlabs/alphawatch/internal/logger"
	"github.com/insightlabs/alphawatch/internal/monitor"
	"github.com/insightlabs/alphawatch/internal/notify"
	"github.com/insightlabs/alphawatch/internal/store"
	"github.com/insightlabs/alphawatch/pkg/nof1"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	testMode bool
	runOnce  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "alphawatch",
		Short: "AI trading-agent position monitor",
		Long:  `Monitors the positions of AI trading agents, detects trade events between snapshots and sends chat notifications`,
		Run:   runMonitor,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.Flags().BoolVar(&testMode, "test", false, "send a test notification and exit")
	rootCmd.Flags().BoolVar(&runOnce, "once", false, "run a single monitoring cycle and exit")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runMonitor(cmd *cobra.Command, args []string) {
	// .env is optional; real deployments configure through files or env.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := nof1.NewClient(cfg.Upstream.APIURL, log)
	snapshots := store.New(cfg.Data.Dir, cfg.Data.SaveHistory, log)
	analyzer := diff.NewAnalyzer(diff.Thresholds{
		SizeEpsilon:     cfg.Analysis.SizeEpsilon,
		LeverageEpsilon: cfg.Analysis.LeverageEpsilon,
	}, cfg.Monitor.Models, log)

	var channels []notify.Notifier
	if cfg.Notify.WeChatWebhookURL != "" {
		channels = append(channels, notify.NewWeChat(cfg.Notify.WeChatWebhookURL, cfg.Notify.DashboardURL, log))
	}
	if cfg.Notify.TelegramBotToken != "" && cfg.Notify.TelegramChatID != "" {
		channels = append(channels, notify.NewTelegram(
			cfg.Notify.TelegramBotToken, cfg.Notify.TelegramChatID,
			cfg.Notify.TelegramProxy, cfg.Notify.DashboardURL, log))
	}
	if len(channels) == 0 {
		log.Warn("No notification channels configured, running fetch-and-analyze only")
	}
	fanout := notify.NewFanout(log, channels...)

	mon := monitor.New(fetcher, snapshots, analyzer, fanout, cfg.Monitor.Interval, log)

	if testMode {
		if err := mon.TestNotification(ctx); err != nil {
			log.WithError(err).Fatal("Test notification failed")
		}
		log.Info("Test notification sent")
		return
	}

	if runOnce {
		report, err := mon.RunOnce(ctx)
		if err != nil {
			log.WithError(err).Fatal("Monitoring cycle failed")
		}
		log.WithField("events", report.Total).Info("Cycle completed")
		return
	}

	if err := mon.Start(ctx); err != nil {
		log.WithError(err).Fatal("Failed to start monitor")
	}

	apiServer := api.NewServer(mon, snapshots, log, fmt.Sprintf("%d", cfg.Server.Port), cfg.Server.AuthSecret)
	go func() {
		if err := apiServer.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start status server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info("Alphawatch is running. Press Ctrl+C to stop.")

	<-sigChan
	log.Info("Received shutdown signal")

	mon.Stop()
	cancel()

	log.Info("Alphawatch stopped")
}
