package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ErrRequiresRestart is returned by TryReload when a changed key cannot be applied
// to the running process. Reloadable keys in the same change are still applied.
var ErrRequiresRestart = errors.New("configuration change requires restart")

// ReloadFunc is called after a reload with the previous and the new configuration.
type ReloadFunc func(old, updated *Config)

// ConfigManager watches the configuration file and applies hot-reloadable keys.
type ConfigManager struct {
	path   string
	v      *viper.Viper
	logger *slog.Logger

	mu        sync.RWMutex
	current   *Config
	snapshot  map[string]any
	callbacks []ReloadFunc

	reloadMu sync.Mutex
}

// NewConfigManager creates a manager for the file at path, starting from initial.
func NewConfigManager(path string, initial *Config, logger *slog.Logger) (*ConfigManager, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config for watch: %w", err)
	}

	return &ConfigManager{
		path:     path,
		v:        v,
		logger:   logger,
		current:  initial,
		snapshot: flatten(v),
	}, nil
}

// Get returns the current configuration. Callers must not modify it.
func (cm *ConfigManager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.current
}

// OnReload registers fn to run after every successful reload.
func (cm *ConfigManager) OnReload(fn ReloadFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// Watch starts watching the configuration file for changes.
func (cm *ConfigManager) Watch() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cm.logger.Info("config file changed", "path", e.Name, "op", e.Op.String())
		if err := cm.TryReload(); err != nil && !errors.Is(err, ErrRequiresRestart) {
			cm.logger.Error("config reload failed, keeping current configuration", "error", err)
		}
	})
	cm.v.WatchConfig()
	cm.logger.Info("watching config file", "path", cm.path)
}

// TryReload re-reads the file and applies reloadable keys. An invalid file leaves
// the current configuration in place.
func (cm *ConfigManager) TryReload() error {
	cm.reloadMu.Lock()
	defer cm.reloadMu.Unlock()

	if err := cm.v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	snapshot := flatten(cm.v)

	cm.mu.RLock()
	changed := diffKeys(cm.snapshot, snapshot)
	old := cm.current
	cm.mu.RUnlock()

	if len(changed) == 0 {
		return nil
	}

	next, err := Load(cm.path)
	if err != nil {
		return fmt.Errorf("loading changed config: %w", err)
	}

	updated := *old
	updated.Logging.Level = next.Logging.Level
	updated.Bridge.PacingInterval = next.Bridge.PacingInterval

	var restart []string
	for _, key := range changed {
		if !IsReloadable(key) {
			restart = append(restart, key)
		}
	}

	cm.mu.Lock()
	cm.current = &updated
	cm.snapshot = snapshot
	callbacks := append([]ReloadFunc(nil), cm.callbacks...)
	cm.mu.Unlock()

	for _, fn := range callbacks {
		fn(old, &updated)
	}

	if len(restart) > 0 {
		for _, key := range restart {
			cm.logger.Warn("config change requires restart",
				"key", key,
				"reason", restartReason(key),
			)
		}
		return ErrRequiresRestart
	}

	cm.logger.Info("configuration reloaded", "keys", changed)
	return nil
}

// flatten returns every leaf key of the viper tree with its value.
func flatten(v *viper.Viper) map[string]any {
	out := make(map[string]any)
	for _, key := range v.AllKeys() {
		out[key] = v.Get(key)
	}
	return out
}

// diffKeys returns the sorted keys whose values differ between a and b.
func diffKeys(a, b map[string]any) []string {
	seen := make(map[string]bool)
	var changed []string
	for _, m := range []map[string]any{a, b} {
		for key := range m {
			if seen[key] {
				continue
			}
			seen[key] = true
			if !reflect.DeepEqual(a[key], b[key]) {
				changed = append(changed, key)
			}
		}
	}
	sort.Strings(changed)
	return changed
}

// restartReason looks up the most specific static key covering key.
func restartReason(key string) string {
	for k := key; k != ""; {
		if _, ok := staticKeys[k]; ok {
			return getRestartReason(k)
		}
		i := strings.LastIndexByte(k, '.')
		if i < 0 {
			break
		}
		k = k[:i]
	}
	return getRestartReason(key)
}
