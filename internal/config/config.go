// Package config loads and hot-reloads the engine's configuration,
// grounded on the teacher's config.Load (config_reference.go): viper for
// layered file/env/default resolution, fsnotify for reload-on-write.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/helixforge/codemill/internal/engineerr"
	"github.com/helixforge/codemill/internal/logging"
)

// ServerConfig is the transport layer's bind/timeout configuration (spec §6).
type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	TLSCertFile     string `mapstructure:"tls_cert"`
	TLSKeyFile      string `mapstructure:"tls_key"`
	IdleTimeoutSecs int    `mapstructure:"idle_timeout_seconds"`
	MaxClients      int    `mapstructure:"max_clients"`
}

// AuthConfig is the bearer-token validation configuration (spec §6).
type AuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Secret   string `mapstructure:"jwt_secret"`
	Issuer   string `mapstructure:"issuer"`
	Audience string `mapstructure:"audience"`
}

// PluginConfig describes one registered plugin (spec §4.G "populated from configuration").
type PluginConfig struct {
	Name       string `mapstructure:"name"`
	Extensions []string `mapstructure:"extensions"`
	Priority   int    `mapstructure:"priority"`
}

// BatchConfig tunes the Batch Analysis Engine's AST cache (spec §4.H).
type BatchConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// LoggingConfig mirrors the teacher's LoggingConfig shape (spec §6 env vars).
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Config is the engine's full configuration (SPEC_FULL.md §10).
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Plugins []PluginConfig `mapstructure:"plugins"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load reads configuration from the path named by CODEMILL_CONFIG (if set),
// else from ./config/config.yaml, ./config.yaml, or $HOME/.config/codemill/
// config.yaml, applying CODEMILL_* environment overrides (spec §6: "<APP>_
// CONFIG path override, <APP>_JWT_SECRET overrides config").
func Load(configPathOverride string) (*Config, error) {
	setDefaults()

	if configPathOverride == "" {
		configPathOverride = os.Getenv("CODEMILL_CONFIG")
	}
	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config/")
		viper.AddConfigPath("./")
		viper.AddConfigPath("$HOME/.config/codemill/")
		viper.AddConfigPath("/etc/codemill/")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("CODEMILL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.BindEnv("auth.jwt_secret", "CODEMILL_JWT_SECRET")
	viper.BindEnv("logging.level", "CODEMILL_LOG_LEVEL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, engineerr.Wrap(err, engineerr.Internal, "failed to read config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, engineerr.Wrap(err, engineerr.Internal, "failed to unmarshal config")
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 7420)
	viper.SetDefault("server.idle_timeout_seconds", 300)
	viper.SetDefault("server.max_clients", 64)
	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("batch.cache_size", 2048)
	viper.SetDefault("logging.level", "info")
}

// WatchForChanges installs an fsnotify watcher on the active config file
// and invokes onChange with the reloaded Config whenever it is rewritten
// (spec §6's "no env var required" VCS detection is unrelated; this is the
// ambient hot-reload convention grounded on the teacher's fsnotify use
// elsewhere in its config layer).
func WatchForChanges(log *logging.Logger, onChange func(*Config)) error {
	if log == nil {
		log = logging.DefaultLogger()
	}
	used := viper.ConfigFileUsed()
	if used == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return engineerr.Wrap(err, engineerr.Internal, "failed to start config watcher")
	}
	if err := watcher.Add(used); err != nil {
		return engineerr.Wrap(err, engineerr.Internal, "failed to watch config file %s", used)
	}
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(used)
				if err != nil {
					log.Warn(fmt.Sprintf("config reload failed: %v", err))
					continue
				}
				log.Info("config reloaded", logging.Fields{"file": used})
				onChange(cfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn(fmt.Sprintf("config watcher error: %v", err))
			}
		}
	}()
	return nil
}
