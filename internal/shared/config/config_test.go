package config

import (
	"testing"
	"time"

	"github.com/knadh/koanf/v2"
	sharedErrors "github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKoanf(t *testing.T, values map[string]any) *koanf.Koanf {
	t.Helper()
	k := koanf.New(".")
	for key, value := range values {
		require.NoError(t, k.Set(key, value))
	}
	return k
}

func TestDefaults(t *testing.T) {
	cfg, err := fromKoanf(newKoanf(t, nil))
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.AutoDeleteMinutes)
	assert.Equal(t, 10, cfg.DedupWindowMinutes)
	assert.Equal(t, 10*time.Minute, cfg.Retention())
	assert.Equal(t, 10*time.Minute, cfg.ReaperInterval())
	assert.Equal(t, time.Minute, cfg.DedupSweepInterval())
	assert.Equal(t, SessionStoreFile, cfg.SessionStore)
	assert.Equal(t, AppEnvProduction, cfg.AppEnv)
	assert.True(t, cfg.SkipPrivateChats)
	assert.True(t, cfg.SkipBroadcastChannels)
	assert.Empty(t, cfg.MonitorChatIDs)
	assert.Equal(t, "Asia/Shanghai", cfg.ReaperTimezone)
}

func TestDedupWindowFollowsRetention(t *testing.T) {
	cfg, err := fromKoanf(newKoanf(t, map[string]any{"auto_delete_minutes": "0"}))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.DedupWindowMinutes)
	assert.Equal(t, time.Duration(0), cfg.Retention())
	assert.Equal(t, time.Minute, cfg.ReaperInterval())

	cfg, err = fromKoanf(newKoanf(t, map[string]any{"auto_delete_minutes": "30", "dedup_window_minutes": "5"}))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.DedupWindow())
	assert.Equal(t, 30*time.Minute, cfg.Retention())
}

func TestListsAreParsedFromCommaSeparatedValues(t *testing.T) {
	cfg, err := fromKoanf(newKoanf(t, map[string]any{
		"monitor_chat_ids":     "-1001111, 2222 ,",
		"not_monitor_chat_ids": "-1003333",
		"monitor_keywords":     "红包, airdrop",
		"target_user_ids":      []interface{}{777, "888"},
		"user_keywords":        "",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"-1001111", "2222"}, cfg.MonitorChatIDs)
	assert.Equal(t, []string{"-1003333"}, cfg.NotMonitorChatIDs)
	assert.Equal(t, []string{"红包", "airdrop"}, cfg.MonitorKeywords)
	assert.Equal(t, []string{"777", "888"}, cfg.TargetUserIDs)
	assert.Empty(t, cfg.UserKeywords)
}

func TestAdminChatDefaultsToNotificationChat(t *testing.T) {
	cfg, err := fromKoanf(newKoanf(t, map[string]any{"notification_chat_id": "-100999"}))
	require.NoError(t, err)
	assert.Equal(t, "-100999", cfg.AdminChatID)
}

func TestInvalidSessionStore(t *testing.T) {
	_, err := fromKoanf(newKoanf(t, map[string]any{"session_store": "redis"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSessionStore)
}

func TestValidate(t *testing.T) {
	cfg, err := fromKoanf(newKoanf(t, nil))
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), sharedErrors.ErrMissingAppCredentials)

	cfg.AppID = 12345
	cfg.AppAPIHash = "hash"
	assert.ErrorIs(t, cfg.Validate(), sharedErrors.ErrMissingBotToken)

	cfg.TelegramBotToken = "token"
	assert.ErrorIs(t, cfg.Validate(), sharedErrors.ErrMissingNotificationChat)

	cfg.NotificationChatID = "-100123"
	assert.NoError(t, cfg.Validate())

	cfg.SessionStore = SessionStoreMongo
	assert.Error(t, cfg.Validate())
}

func TestWarnings(t *testing.T) {
	cfg, err := fromKoanf(newKoanf(t, map[string]any{"monitor_keywords": "airdrop"}))
	require.NoError(t, err)
	assert.Len(t, cfg.Warnings(), 1)

	cfg, err = fromKoanf(newKoanf(t, map[string]any{"monitor_chat_ids": "1", "monitor_keywords": "airdrop"}))
	require.NoError(t, err)
	assert.Empty(t, cfg.Warnings())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ID", "4242")
	t.Setenv("MONITOR_KEYWORDS", "cat,dog")
	t.Setenv("SKIP_PRIVATE_CHATS", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4242, cfg.AppID)
	assert.Equal(t, []string{"cat", "dog"}, cfg.MonitorKeywords)
	assert.False(t, cfg.SkipPrivateChats)
}
