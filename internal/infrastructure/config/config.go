package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Slack     SlackConfig     `yaml:"slack"`
	Forum     ForumConfig     `yaml:"forum"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds ops HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SlackConfig holds the chat side of the bridge.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"  validate:"required"`
	AppToken  string `yaml:"app_token"  validate:"required"`
	ChannelID string `yaml:"channel_id" validate:"required"`
	Debug     bool   `yaml:"debug"`
	APIURL    string `yaml:"api_url"`
}

// ForumConfig holds the reddit side of the bridge.
type ForumConfig struct {
	Community          string        `yaml:"community"           validate:"required"`
	StaffCommunity     string        `yaml:"staff_community"`
	StaffExcluded      []string      `yaml:"staff_excluded"`
	AppKey             string        `yaml:"app_key"             validate:"required"`
	AppSecret          string        `yaml:"app_secret"          validate:"required"`
	AccessToken        string        `yaml:"access_token"`
	RefreshToken       string        `yaml:"refresh_token"       validate:"required"`
	APIURL             string        `yaml:"api_url"`
	TokenURL           string        `yaml:"token_url"`
	UserAgent          string        `yaml:"user_agent"`
	RefreshMargin      time.Duration `yaml:"refresh_margin"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ExcludedModerators []string      `yaml:"excluded_moderators"`
}

// BridgeConfig holds event loop settings.
type BridgeConfig struct {
	PacingInterval time.Duration `yaml:"pacing_interval"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
}

// StorageConfig holds audit trail storage settings.
type StorageConfig struct {
	Type              string        `yaml:"type"` // "memory", "sqlite", or "mysql"
	SQLite            SQLiteConfig  `yaml:"sqlite"`
	MySQL             MySQLConfig   `yaml:"mysql"`
	Retention         time.Duration `yaml:"retention"`
	RetentionInterval time.Duration `yaml:"retention_interval"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"` // Database file path, use ":memory:" for in-memory
}

// MySQLConfig holds MySQL-specific settings.
type MySQLConfig struct {
	Host      string          `yaml:"host"`
	Port      int             `yaml:"port"`
	Database  string          `yaml:"database"`
	Username  string          `yaml:"username"`
	Password  string          `yaml:"password"`
	Pool      MySQLPoolConfig `yaml:"pool"`
	Timeout   time.Duration   `yaml:"timeout"`
	ParseTime bool            `yaml:"parse_time"`
	Charset   string          `yaml:"charset"`
}

// MySQLPoolConfig holds MySQL connection pool settings.
type MySQLPoolConfig struct {
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TelemetryConfig holds tracing export settings. Tracing is disabled when
// OTLPEndpoint is empty.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
}

// Load reads configuration from file and environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			expandedData := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	cfg.overrideFromEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// overrideFromEnv overrides config values from environment variables.
func (c *Config) overrideFromEnv() {
	// Server
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}

	// Slack
	if v := os.Getenv("SLACK_BOT_TOKEN"); v != "" {
		c.Slack.BotToken = v
	}
	if v := os.Getenv("SLACK_APP_TOKEN"); v != "" {
		c.Slack.AppToken = v
	}
	if v := os.Getenv("SLACK_CHANNEL_ID"); v != "" {
		c.Slack.ChannelID = v
	}
	if v := os.Getenv("SLACK_DEBUG"); v != "" {
		c.Slack.Debug = strings.ToLower(v) == "true"
	}

	// Forum
	if v := os.Getenv("FORUM_COMMUNITY"); v != "" {
		c.Forum.Community = v
	}
	if v := os.Getenv("FORUM_STAFF_COMMUNITY"); v != "" {
		c.Forum.StaffCommunity = v
	}
	if v := os.Getenv("FORUM_APP_KEY"); v != "" {
		c.Forum.AppKey = v
	}
	if v := os.Getenv("FORUM_APP_SECRET"); v != "" {
		c.Forum.AppSecret = v
	}
	if v := os.Getenv("FORUM_ACCESS_TOKEN"); v != "" {
		c.Forum.AccessToken = v
	}
	if v := os.Getenv("FORUM_REFRESH_TOKEN"); v != "" {
		c.Forum.RefreshToken = v
	}
	if v := os.Getenv("FORUM_USER_AGENT"); v != "" {
		c.Forum.UserAgent = v
	}
	if v := os.Getenv("FORUM_EXCLUDED_MODERATORS"); v != "" {
		c.Forum.ExcludedModerators = splitList(v)
	}

	// Bridge
	if v := os.Getenv("BRIDGE_PACING_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Bridge.PacingInterval = d
		}
	}

	// Logging
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}

	// Storage
	if v := os.Getenv("STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("SQLITE_DATABASE_PATH"); v != "" {
		c.Storage.SQLite.Path = v
	}
	if v := os.Getenv("MYSQL_HOST"); v != "" {
		c.Storage.MySQL.Host = v
	}
	if v := os.Getenv("MYSQL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Storage.MySQL.Port = port
		}
	}
	if v := os.Getenv("MYSQL_DATABASE"); v != "" {
		c.Storage.MySQL.Database = v
	}
	if v := os.Getenv("MYSQL_USERNAME"); v != "" {
		c.Storage.MySQL.Username = v
	}
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		c.Storage.MySQL.Password = v
	}

	// Telemetry
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.Telemetry.OTLPEndpoint = v
	}
}

// applyDefaults sets default values for unset config options.
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 5 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	// Forum defaults
	if c.Forum.RefreshMargin == 0 {
		c.Forum.RefreshMargin = 5 * time.Minute
	}
	if c.Forum.RequestTimeout == 0 {
		c.Forum.RequestTimeout = 30 * time.Second
	}
	if c.Forum.ExcludedModerators == nil {
		c.Forum.ExcludedModerators = []string{"AutoModerator"}
	}

	// Bridge defaults
	if c.Bridge.PacingInterval == 0 {
		c.Bridge.PacingInterval = time.Second
	}
	if c.Bridge.ReadTimeout == 0 {
		c.Bridge.ReadTimeout = 5 * time.Second
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	// Storage defaults
	if c.Storage.Type == "" {
		c.Storage.Type = "memory"
	}
	if c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = "./data/modlog-bridge.db"
	}
	if c.Storage.Retention == 0 {
		c.Storage.Retention = 30 * 24 * time.Hour
	}
	if c.Storage.RetentionInterval == 0 {
		c.Storage.RetentionInterval = time.Hour
	}

	// MySQL defaults
	if c.Storage.MySQL.Port == 0 {
		c.Storage.MySQL.Port = 3306
	}
	if c.Storage.MySQL.Pool.MaxOpenConns == 0 {
		c.Storage.MySQL.Pool.MaxOpenConns = 10
	}
	if c.Storage.MySQL.Pool.MaxIdleConns == 0 {
		c.Storage.MySQL.Pool.MaxIdleConns = 2
	}
	if c.Storage.MySQL.Pool.ConnMaxLifetime == 0 {
		c.Storage.MySQL.Pool.ConnMaxLifetime = 3 * time.Minute
	}
	if c.Storage.MySQL.Pool.ConnMaxIdleTime == 0 {
		c.Storage.MySQL.Pool.ConnMaxIdleTime = time.Minute
	}
	if c.Storage.MySQL.Timeout == 0 {
		c.Storage.MySQL.Timeout = 5 * time.Second
	}
	if !c.Storage.MySQL.ParseTime {
		c.Storage.MySQL.ParseTime = true
	}
	if c.Storage.MySQL.Charset == "" {
		c.Storage.MySQL.Charset = "utf8mb4"
	}
}

// validate checks required credentials with struct tags, then ranges and enums.
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("missing required settings: %w", err)
	}
	return c.Validate()
}

// HasStaffCommunity reports whether the ~fullmods command is enabled.
func (c *Config) HasStaffCommunity() bool {
	return c.Forum.StaffCommunity != ""
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
