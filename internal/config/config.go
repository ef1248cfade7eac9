package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/insightlabs/alphawatch/pkg/secrets"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Data     DataConfig     `mapstructure:"data"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	GCP      GCPConfig      `mapstructure:"gcp"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
	// AuthSecret signs the bearer tokens accepted by the admin endpoints.
	// Empty disables them.
	AuthSecret string `mapstructure:"auth_secret"`
}

type UpstreamConfig struct {
	// APIURL is the base URL of the positions API.
	APIURL string `mapstructure:"api_url"`
}

type MonitorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	// Models limits monitoring to the listed model ids; empty watches all.
	Models []string `mapstructure:"models"`
}

type AnalysisConfig struct {
	SizeEpsilon     float64 `mapstructure:"size_epsilon"`
	LeverageEpsilon float64 `mapstructure:"leverage_epsilon"`
}

type NotifyConfig struct {
	WeChatWebhookURL string `mapstructure:"wechat_webhook_url"`
	TelegramBotToken string `mapstructure:"telegram_bot_token"`
	TelegramChatID   string `mapstructure:"telegram_chat_id"`
	TelegramProxy    string `mapstructure:"telegram_proxy"`
	// DashboardURL is linked from every notification.
	DashboardURL string `mapstructure:"dashboard_url"`
}

type DataConfig struct {
	Dir         string `mapstructure:"dir"`
	SaveHistory bool   `mapstructure:"save_history"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type GCPConfig struct {
	ProjectID       string              `mapstructure:"project_id"`
	UseSecrets      bool                `mapstructure:"use_secrets"`
	CredentialsFile string              `mapstructure:"credentials_file"`
	SecretNames     secrets.SecretNames `mapstructure:"secret_names"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/alphawatch")
	}

	v.SetEnvPrefix("ALPHAWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&config)

	if config.GCP.UseSecrets && config.GCP.ProjectID != "" {
		ctx := context.Background()
		logger := logrus.New()
		if err := loadSecretsFromGCP(ctx, &config, logger); err != nil {
			return nil, fmt.Errorf("error loading secrets from GCP: %w", err)
		}
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 5010)
	v.SetDefault("server.auth_secret", "")

	// Upstream defaults
	v.SetDefault("upstream.api_url", "https://nof1.ai/api")

	// Monitor defaults
	v.SetDefault("monitor.interval", time.Minute)
	v.SetDefault("monitor.models", []string{})

	// Analysis defaults: the smallest size or leverage move that counts as a
	// real change rather than reporting noise.
	v.SetDefault("analysis.size_epsilon", 1e-9)
	v.SetDefault("analysis.leverage_epsilon", 1e-9)

	// Notify defaults
	v.SetDefault("notify.telegram_proxy", "")
	v.SetDefault("notify.dashboard_url", "")

	// Data defaults
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.save_history", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 14)
	v.SetDefault("logging.compress", true)

	// GCP defaults
	v.SetDefault("gcp.use_secrets", false)
	v.SetDefault("gcp.project_id", "")
	v.SetDefault("gcp.credentials_file", "")

	secretNames := secrets.DefaultSecretNames()
	v.SetDefault("gcp.secret_names.wechat_webhook_url", secretNames.WeChatWebhookURL)
	v.SetDefault("gcp.secret_names.telegram_bot_token", secretNames.TelegramBotToken)
	v.SetDefault("gcp.secret_names.telegram_chat_id", secretNames.TelegramChatID)
	v.SetDefault("gcp.secret_names.server_auth_secret", secretNames.ServerAuthSecret)
}

// overrideFromEnv keeps the original deployment's bare env var names working
// alongside the ALPHAWATCH_ prefixed ones.
func overrideFromEnv(config *Config) {
	if apiURL := os.Getenv("API_URL"); apiURL != "" {
		config.Upstream.APIURL = apiURL
	}
	if webhook := os.Getenv("WECHAT_WEBHOOK_URL"); webhook != "" {
		config.Notify.WeChatWebhookURL = webhook
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		config.Notify.TelegramBotToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		config.Notify.TelegramChatID = chatID
	}
	if proxy := os.Getenv("TELEGRAM_PROXY"); proxy != "" {
		config.Notify.TelegramProxy = proxy
	}
	if modelsRaw := os.Getenv("MONITORED_MODELS"); modelsRaw != "" {
		config.Monitor.Models = splitModels(modelsRaw)
	}
	if saveHistory := os.Getenv("SAVE_HISTORY_DATA"); saveHistory != "" {
		config.Data.SaveHistory = strings.EqualFold(saveHistory, "true")
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if projectID := os.Getenv("GCP_PROJECT_ID"); projectID != "" {
		config.GCP.ProjectID = projectID
	}
	if useSecrets := os.Getenv("GCP_USE_SECRETS"); useSecrets == "true" {
		config.GCP.UseSecrets = true
	}
}

func splitModels(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// HasNotifier reports whether at least one notification channel is set up.
// Running without one is allowed: the monitor still fetches and analyzes.
func (c *Config) HasNotifier() bool {
	return c.Notify.WeChatWebhookURL != "" ||
		(c.Notify.TelegramBotToken != "" && c.Notify.TelegramChatID != "")
}

func loadSecretsFromGCP(ctx context.Context, config *Config, logger *logrus.Logger) error {
	secretManager, err := secrets.NewGCPSecretManager(ctx, config.GCP.ProjectID, config.GCP.CredentialsFile, logger)
	if err != nil {
		return fmt.Errorf("failed to create secret manager: %w", err)
	}
	defer secretManager.Close()

	// Only load secrets that are not already set
	if config.Notify.WeChatWebhookURL == "" {
		config.Notify.WeChatWebhookURL = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.WeChatWebhookURL, "")
	}
	if config.Notify.TelegramBotToken == "" {
		config.Notify.TelegramBotToken = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.TelegramBotToken, "")
	}
	if config.Notify.TelegramChatID == "" {
		config.Notify.TelegramChatID = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.TelegramChatID, "")
	}
	if config.Server.AuthSecret == "" {
		config.Server.AuthSecret = secretManager.GetSecretWithDefault(ctx,
			config.GCP.SecretNames.ServerAuthSecret, "")
	}

	logger.Info("Successfully loaded secrets from GCP Secret Manager")
	return nil
}
