// Package config loads actorhost's layered configuration: an embedded
// default.toml, an optional config/<system-name>.toml override, and
// finally ACTORHOST_-prefixed environment variables, in that order.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

//go:embed default.toml
var defaultConfig []byte

// defaultSystemName is substituted when the system name resolves to
// neither an explicit value nor $HOSTNAME. Cargo builds can fall back to
// the crate name at compile time; Go has no equivalent constant, so this
// is a fixed string instead.
const defaultSystemName = "actorhost"

// PoolSettings configures one named thread pool's sizing.
type PoolSettings struct {
	ThreadsFactor float64 `mapstructure:"threads_factor"`
	ThreadsMin    int     `mapstructure:"threads_min"`
	ThreadsMax    int     `mapstructure:"threads_max"`
}

// ActorSettings are the defaults a Builder applies before any With* call.
type ActorSettings struct {
	MailboxSize       int    `mapstructure:"mailbox_size"`
	MessageThroughput int    `mapstructure:"message_throughput"`
	RestartPolicy     string `mapstructure:"restart_policy"`
}

// LogSettings configures the zap logger built by actorlog.New.
type LogSettings struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ShutdownSettings holds the configured shutdown grace period. System.Stop
// takes its grace period as an argument and does not read this value.
type ShutdownSettings struct {
	GracePeriod time.Duration `mapstructure:"grace_period"`
}

// Settings is the fully decoded configuration tree.
type Settings struct {
	System struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"system"`
	Pool     map[string]PoolSettings `mapstructure:"pool"`
	Actor    ActorSettings           `mapstructure:"actor"`
	Log      LogSettings             `mapstructure:"log"`
	Shutdown ShutdownSettings        `mapstructure:"shutdown"`
}

// Load builds Settings for the named system: the embedded default, merged
// with config/<systemName>.toml if present, merged with ACTORHOST_
// environment variables (dots replaced by underscores, per viper's
// AutomaticEnv convention). A non-empty systemName becomes System.Name;
// an empty one keeps the configured system.name.
func Load(systemName string) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(bytes.NewReader(defaultConfig)); err != nil {
		return nil, fmt.Errorf("actorhost/config: reading embedded defaults: %w", err)
	}

	overridePath := filepath.Join("config", systemName+".toml")
	if _, err := os.Stat(overridePath); err == nil {
		v.SetConfigFile(overridePath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("actorhost/config: merging %s: %w", overridePath, err)
		}
	}

	v.SetEnvPrefix("ACTORHOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var s Settings
	decodeHook := viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())
	if err := v.Unmarshal(&s, decodeHook); err != nil {
		return nil, fmt.Errorf("actorhost/config: decoding settings: %w", err)
	}

	name := s.System.Name
	if systemName != "" {
		name = systemName
	}
	s.System.Name = resolveSystemName(name)
	return &s, nil
}

// resolveSystemName implements the $HOSTNAME sentinel: a literal
// "$HOSTNAME" value (set via config file or ACTORHOST_SYSTEM_NAME) is
// replaced by the machine's hostname, falling back to defaultSystemName
// if neither is usable.
func resolveSystemName(configured string) string {
	if configured == "$HOSTNAME" {
		if host, err := os.Hostname(); err == nil && host != "" {
			return host
		}
		return defaultSystemName
	}
	if configured == "" {
		return defaultSystemName
	}
	return configured
}
