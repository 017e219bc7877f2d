// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/pitlane/config.yaml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix is the prefix stripped from environment variables, matching the
// §6 "Environment inputs" list (PITLANE_LOGGING_LEVEL, PITLANE_DATABASE_PATH,
// PITLANE_SCHEDULER_TICK_SECONDS, ...).
const EnvPrefix = "PITLANE_"

// Load builds a Config by layering, in increasing priority: struct
// defaults, an optional YAML file, then environment variables. Grounded on
// internal/config/koanf.go's load order.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := Default()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, err
	}

	if path := resolveConfigPath(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envTransform turns PITLANE_DATABASE_PATH into database.path and
// PITLANE_SCHEDULER_TICK_SECONDS into scheduler.tick_seconds: only the first
// underscore separates the section from the field, matching the nested
// koanf struct tags in config.go.
func envTransform(key, value string) (string, interface{}) {
	key = strings.TrimPrefix(key, EnvPrefix)
	key = strings.ToLower(key)
	key = strings.Replace(key, "_", ".", 1)
	return key, value
}

func resolveConfigPath() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
