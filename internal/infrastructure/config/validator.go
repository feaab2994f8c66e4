package config

import (
	"fmt"
	"strings"
	"time"
)

// reloadableKeys defines the configuration keys applied without a restart.
var reloadableKeys = map[string]bool{
	"logging.level":          true,
	"bridge.pacing_interval": true,
}

// staticKeys defines configuration keys that require application restart.
var staticKeys = map[string]string{
	"server.port":           "HTTP listener restart required",
	"slack.channel_id":      "Socket Mode channel binding is fixed at startup",
	"forum.community":       "Forum client is bound to one community",
	"forum.staff_community": "Command table is built at startup",
	"storage.type":          "Storage backend initialization required",
	"storage.sqlite.path":   "Database connection recreation required",
	"storage.mysql":         "Database connection pool recreation required",
}

// IsReloadable returns true if the given config key can be hot-reloaded.
func IsReloadable(key string) bool {
	return reloadableKeys[key]
}

// getRestartReason returns why a static config key requires restart.
func getRestartReason(key string) string {
	if reason, ok := staticKeys[key]; ok {
		return reason
	}
	return "unknown configuration requires restart"
}

// ValidateLogLevel checks if the log level is valid.
func ValidateLogLevel(level string) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
	}
	return nil
}

// ValidateLogFormat checks if the log format is valid.
func ValidateLogFormat(format string) error {
	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validFormats[strings.ToLower(format)] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", format)
	}
	return nil
}

// ValidateNonEmpty checks if a string is non-empty.
func ValidateNonEmpty(value string, fieldName string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidateDuration checks if a duration is greater than zero.
func ValidateDuration(duration time.Duration, fieldName string) error {
	if duration <= 0 {
		return fmt.Errorf("%s must be greater than 0", fieldName)
	}
	return nil
}

// ValidatePort checks if a port number is valid.
func ValidatePort(port int, fieldName string) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", fieldName, port)
	}
	return nil
}

// ValidateStorageType checks if the storage type is valid.
func ValidateStorageType(storageType string) error {
	validTypes := map[string]bool{
		"memory": true,
		"sqlite": true,
		"mysql":  true,
	}
	if !validTypes[strings.ToLower(storageType)] {
		return fmt.Errorf("invalid storage type: %s (must be memory, sqlite, or mysql)", storageType)
	}
	return nil
}

// Validate checks ranges, enums and cross-field constraints and reports every
// violation at once.
func (c *Config) Validate() error {
	var errors []string
	add := func(err error) {
		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	// Server
	add(ValidatePort(c.Server.Port, "server.port"))
	add(ValidateDuration(c.Server.ReadTimeout, "server.read_timeout"))
	add(ValidateDuration(c.Server.WriteTimeout, "server.write_timeout"))
	add(ValidateDuration(c.Server.RequestTimeout, "server.request_timeout"))
	add(ValidateDuration(c.Server.ShutdownTimeout, "server.shutdown_timeout"))
	if c.Server.RequestTimeout >= c.Server.WriteTimeout {
		errors = append(errors, "server.request_timeout must be less than server.write_timeout")
	}

	// Slack
	add(ValidateNonEmpty(c.Slack.BotToken, "slack.bot_token"))
	add(ValidateNonEmpty(c.Slack.AppToken, "slack.app_token"))
	add(ValidateNonEmpty(c.Slack.ChannelID, "slack.channel_id"))

	// Forum
	add(ValidateNonEmpty(c.Forum.Community, "forum.community"))
	add(ValidateNonEmpty(c.Forum.AppKey, "forum.app_key"))
	add(ValidateNonEmpty(c.Forum.AppSecret, "forum.app_secret"))
	add(ValidateNonEmpty(c.Forum.RefreshToken, "forum.refresh_token"))
	add(ValidateDuration(c.Forum.RequestTimeout, "forum.request_timeout"))
	if c.Forum.RefreshMargin < 0 {
		errors = append(errors, "forum.refresh_margin cannot be negative")
	}
	if strings.HasPrefix(c.Forum.Community, "r/") || strings.HasPrefix(c.Forum.Community, "/r/") {
		errors = append(errors, "forum.community must be the bare community name, without r/")
	}

	// Bridge
	add(ValidateDuration(c.Bridge.ReadTimeout, "bridge.read_timeout"))
	if c.Bridge.PacingInterval < 0 {
		errors = append(errors, "bridge.pacing_interval cannot be negative")
	}

	// Storage
	add(ValidateStorageType(c.Storage.Type))
	add(ValidateDuration(c.Storage.Retention, "storage.retention"))
	add(ValidateDuration(c.Storage.RetentionInterval, "storage.retention_interval"))

	switch strings.ToLower(c.Storage.Type) {
	case "sqlite":
		add(ValidateNonEmpty(c.Storage.SQLite.Path, "storage.sqlite.path"))

	case "mysql":
		add(ValidateNonEmpty(c.Storage.MySQL.Host, "storage.mysql.host"))
		add(ValidatePort(c.Storage.MySQL.Port, "storage.mysql.port"))
		add(ValidateNonEmpty(c.Storage.MySQL.Database, "storage.mysql.database"))
		add(ValidateNonEmpty(c.Storage.MySQL.Username, "storage.mysql.username"))
		add(ValidateNonEmpty(c.Storage.MySQL.Password, "storage.mysql.password"))

		if c.Storage.MySQL.Pool.MaxOpenConns < 1 {
			errors = append(errors, "storage.mysql.pool.max_open_conns must be at least 1")
		}
		if c.Storage.MySQL.Pool.MaxIdleConns < 0 {
			errors = append(errors, "storage.mysql.pool.max_idle_conns cannot be negative")
		}
		if c.Storage.MySQL.Pool.MaxIdleConns > c.Storage.MySQL.Pool.MaxOpenConns {
			errors = append(errors, "storage.mysql.pool.max_idle_conns cannot exceed max_open_conns")
		}
	}

	// Logging
	add(ValidateLogLevel(c.Logging.Level))
	add(ValidateLogFormat(c.Logging.Format))

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}
