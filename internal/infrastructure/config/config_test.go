package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
slack:
  bot_token: xoxb-test
  app_token: xapp-test
  channel_id: C1
forum:
  community: mycommunity
  app_key: key
  app_secret: secret
  refresh_token: refresh
`

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "SLACK_BOT_TOKEN", "SLACK_APP_TOKEN", "SLACK_CHANNEL_ID", "SLACK_DEBUG",
		"FORUM_COMMUNITY", "FORUM_STAFF_COMMUNITY", "FORUM_APP_KEY", "FORUM_APP_SECRET",
		"FORUM_ACCESS_TOKEN", "FORUM_REFRESH_TOKEN", "FORUM_USER_AGENT", "FORUM_EXCLUDED_MODERATORS",
		"BRIDGE_PACING_INTERVAL", "LOG_LEVEL", "LOG_FORMAT", "STORAGE_TYPE", "SQLITE_DATABASE_PATH",
		"MYSQL_HOST", "MYSQL_PORT", "MYSQL_DATABASE", "MYSQL_USERNAME", "MYSQL_PASSWORD",
		"OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, time.Second, cfg.Bridge.PacingInterval)
	assert.Equal(t, 5*time.Minute, cfg.Forum.RefreshMargin)
	assert.Equal(t, []string{"AutoModerator"}, cfg.Forum.ExcludedModerators)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, 30*24*time.Hour, cfg.Storage.Retention)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.HasStaffCommunity())
}

func TestLoad_EnvOverridesAndExpansion(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_APP_SECRET", "from-env")
	t.Setenv("FORUM_STAFF_COMMUNITY", "staff")
	t.Setenv("FORUM_EXCLUDED_MODERATORS", "AutoModerator, helper-bot ,")
	t.Setenv("BRIDGE_PACING_INTERVAL", "3s")
	t.Setenv("LOG_LEVEL", "debug")

	content := minimalYAML + "\n" + `
logging:
  level: warn
`
	content = strings.Replace(content, "app_secret: secret", "app_secret: ${TEST_APP_SECRET}", 1)

	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Forum.AppSecret)
	assert.True(t, cfg.HasStaffCommunity())
	assert.Equal(t, []string{"AutoModerator", "helper-bot"}, cfg.Forum.ExcludedModerators)
	assert.Equal(t, 3*time.Second, cfg.Bridge.PacingInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SLACK_BOT_TOKEN", "xoxb")
	t.Setenv("SLACK_APP_TOKEN", "xapp")
	t.Setenv("SLACK_CHANNEL_ID", "C1")
	t.Setenv("FORUM_COMMUNITY", "c")
	t.Setenv("FORUM_APP_KEY", "k")
	t.Setenv("FORUM_APP_SECRET", "s")
	t.Setenv("FORUM_REFRESH_TOKEN", "r")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "c", cfg.Forum.Community)
}

func TestLoad_MissingCredentials(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "forum:\n  community: c\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required settings")
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		extra   string
		wantErr string
	}{
		{name: "bad community", extra: "forum:\n  community: r/test\n", wantErr: "bare community name"},
		{name: "bad log level", extra: "logging:\n  level: loud\n", wantErr: "invalid log level"},
		{name: "bad storage", extra: "storage:\n  type: postgres\n", wantErr: "invalid storage type"},
		{name: "negative pacing", extra: "bridge:\n  pacing_interval: -1s\n", wantErr: "pacing_interval cannot be negative"},
		{name: "mysql without host", extra: "storage:\n  type: mysql\n", wantErr: "storage.mysql.host"},
		{
			name:    "request timeout too long",
			extra:   "server:\n  request_timeout: 20s\n  write_timeout: 10s\n",
			wantErr: "request_timeout must be less than",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, minimalYAML))
			require.NoError(t, err)

			overlay, err := Load(writeConfig(t, mergeYAML(tt.extra)))
			if err == nil {
				t.Fatalf("expected error for %s, config %+v", tt.name, overlay)
			}
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestRestartReason(t *testing.T) {
	assert.True(t, IsReloadable("logging.level"))
	assert.True(t, IsReloadable("bridge.pacing_interval"))
	assert.False(t, IsReloadable("server.port"))

	assert.Equal(t, "Database connection pool recreation required", restartReason("storage.mysql.pool.max_open_conns"))
	assert.Equal(t, "unknown configuration requires restart", restartReason("something.else"))
}

// mergeYAML appends a section to minimalYAML. A forum section replaces the
// community line instead, since forum is already present.
func mergeYAML(extra string) string {
	if rest, ok := strings.CutPrefix(extra, "forum:\n"); ok {
		return strings.Replace(minimalYAML, "  community: mycommunity\n", rest, 1)
	}
	return minimalYAML + extra
}
