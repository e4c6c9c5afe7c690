package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/errors"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/ids"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Config is the immutable startup snapshot. It is never reloaded.
type Config struct {
	TelegramBotToken string `koanf:"telegram_bot_token"`
	TelegramAPIURL   string `koanf:"telegram_api_url"`

	AppID             int    `koanf:"app_id"`
	AppAPIHash        string `koanf:"app_api_hash"`
	PhoneNumber       string `koanf:"phone_number"`
	PhoneCode         string `koanf:"phone_code"`
	TwoFactorPassword string `koanf:"two_factor_password"`
	StringSession     string `koanf:"string_session"`

	NotificationChatID string `koanf:"notification_chat_id"`
	AdminChatID        string `koanf:"admin_chat_id"`

	MonitorChatIDs    []string `koanf:"-"`
	NotMonitorChatIDs []string `koanf:"-"`
	MonitorKeywords   []string `koanf:"-"`
	TargetUserIDs     []string `koanf:"-"`
	UserKeywords      []string `koanf:"-"`

	DedupWindowMinutes    int    `koanf:"dedup_window_minutes"`
	DedupSweepSeconds     int    `koanf:"dedup_sweep_seconds"`
	AutoDeleteMinutes     int    `koanf:"auto_delete_minutes"`
	ReaperTimezone        string `koanf:"reaper_timezone"`
	SkipPrivateChats      bool   `koanf:"skip_private_chats"`
	SkipBroadcastChannels bool   `koanf:"skip_broadcast_channels"`
	BotIngest             bool   `koanf:"bot_ingest"`
	PipelineWorkers       int    `koanf:"pipeline_workers"`
	HeartbeatSeconds      int    `koanf:"heartbeat_seconds"`

	SessionStore SessionStore `koanf:"session_store"`
	StoragePath  string       `koanf:"storage_path"`
	MongoURI     string       `koanf:"mongo_uri"`
	MongoDB      string       `koanf:"mongo_db"`
	NatsURL      string       `koanf:"nats_url"`
	NatsSubject  string       `koanf:"nats_subject"`

	HTTPPort string `koanf:"http_port"`
	AppEnv   AppEnv `koanf:"app_env"`
	LogLevel string `koanf:"log_level"`
}

// Load reads config.{yaml,yml,json,toml} if present, then a .env file, then
// the process environment. Environment values win.
func Load() (*Config, error) {
	k := koanf.New(".")

	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// .env only fills variables that are not already set
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, oops.With("context", "loading .env").Wrap(err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) (*Config, error) {
	defaults := map[string]any{
		"telegram_api_url":        "https://api.telegram.org",
		"storage_path":            "./data",
		"http_port":               "8080",
		"app_env":                 "production",
		"log_level":               "info",
		"auto_delete_minutes":     10,
		"dedup_sweep_seconds":     60,
		"reaper_timezone":         "Asia/Shanghai",
		"skip_private_chats":      true,
		"skip_broadcast_channels": true,
		"bot_ingest":              false,
		"pipeline_workers":        4,
		"heartbeat_seconds":       60,
		"session_store":           "file",
		"mongo_db":                "tgmonitor",
		"nats_subject":            "tgmonitor.notifications",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	cfg.MonitorChatIDs = stringList(k, "monitor_chat_ids")
	cfg.NotMonitorChatIDs = stringList(k, "not_monitor_chat_ids")
	cfg.MonitorKeywords = stringList(k, "monitor_keywords")
	cfg.TargetUserIDs = stringList(k, "target_user_ids")
	cfg.UserKeywords = stringList(k, "user_keywords")

	if appEnv, err := ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = appEnv
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	store, err := ParseSessionStore(k.String("session_store"))
	if err != nil {
		return nil, oops.With("session_store", k.String("session_store")).Wrap(err)
	}
	cfg.SessionStore = store

	if cfg.AutoDeleteMinutes < 0 {
		cfg.AutoDeleteMinutes = 0
	}
	if !k.Exists("dedup_window_minutes") || cfg.DedupWindowMinutes <= 0 {
		cfg.DedupWindowMinutes = max(1, cfg.AutoDeleteMinutes)
	}
	if cfg.AdminChatID == "" {
		cfg.AdminChatID = cfg.NotificationChatID
	}
	if cfg.PipelineWorkers <= 0 {
		cfg.PipelineWorkers = 1
	}

	return &cfg, nil
}

// ValidateAccount checks the settings needed to open a user-account session.
func (c *Config) ValidateAccount() error {
	if c.AppID == 0 || c.AppAPIHash == "" {
		return errors.ErrMissingAppCredentials
	}
	return nil
}

// Validate checks everything the monitor needs to run.
func (c *Config) Validate() error {
	if err := c.ValidateAccount(); err != nil {
		return err
	}
	if c.TelegramBotToken == "" {
		return errors.ErrMissingBotToken
	}
	if ids.Normalize(c.NotificationChatID) == "" {
		return errors.ErrMissingNotificationChat
	}
	if c.SessionStore == SessionStoreMongo && c.MongoURI == "" {
		return oops.Errorf("mongo_uri is required when session_store is mongo")
	}
	return nil
}

// Warnings lists settings that are legal but probably not what the operator
// intended.
func (c *Config) Warnings() []string {
	var warnings []string
	if len(c.MonitorChatIDs) == 0 && (len(c.MonitorKeywords) > 0 || len(c.UserKeywords) > 0) {
		warnings = append(warnings, "MONITOR_CHAT_IDS is empty: keywords are matched in every chat the account is in")
	}
	if len(c.MonitorChatIDs) == 0 && len(c.MonitorKeywords) == 0 && len(c.UserKeywords) == 0 {
		warnings = append(warnings, "no chat list and no keywords: every message in every chat will be forwarded")
	}
	if c.AutoDeleteMinutes == 0 {
		warnings = append(warnings, "AUTO_DELETE_MINUTES is 0: expired message cleanup is disabled")
	}
	return warnings
}

// DedupWindow is how long a notified message suppresses repeats.
func (c *Config) DedupWindow() time.Duration {
	return time.Duration(c.DedupWindowMinutes) * time.Minute
}

// DedupSweepInterval is how often expired dedup entries are purged.
func (c *Config) DedupSweepInterval() time.Duration {
	return time.Duration(max(1, c.DedupSweepSeconds)) * time.Second
}

// Retention is the age after which the account's own messages are deleted.
// Zero disables the reaper.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.AutoDeleteMinutes) * time.Minute
}

// ReaperInterval is how often the reaper runs.
func (c *Config) ReaperInterval() time.Duration {
	return time.Duration(max(1, c.AutoDeleteMinutes)) * time.Minute
}

// HeartbeatInterval is how often the account session is probed.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(max(1, c.HeartbeatSeconds)) * time.Second
}

// Location resolves the reaper time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReaperTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SessionPath is where the file session store keeps its blob.
func (c *Config) SessionPath() string {
	return filepath.Join(c.StoragePath, "session", fmt.Sprintf("%s.session", ids.Normalize(c.PhoneNumber)))
}

func stringList(k *koanf.Koanf, key string) []string {
	switch v := k.Get(key).(type) {
	case string:
		return ids.ParseList(v)
	case []interface{}:
		return lo.FilterMap(v, func(item interface{}, _ int) (string, bool) {
			s := strings.TrimSpace(fmt.Sprint(item))
			return s, s != ""
		})
	case []string:
		return lo.Compact(lo.Map(v, func(item string, _ int) string { return strings.TrimSpace(item) }))
	default:
		return []string{}
	}
}
