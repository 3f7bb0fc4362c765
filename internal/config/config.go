// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvJSONOverride names the environment variable holding a JSON document merged over main.toml.
const EnvJSONOverride = "GO_PERMISSION_ADMIN_CONFIG_JSON"

const (
	defaultShutDownTime = 5
	defaultCacheSize    = 10000
	defaultCacheTTL     = 5 * time.Minute
	defaultRedisChannel = "permission-admin:invalidate"
)

// ReadConfig from <path>/main.toml, merged with the JSON override from the environment.
func ReadConfig(path string) (Config, error) {
	var c Config

	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, "main.toml"))

	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	if override := os.Getenv(EnvJSONOverride); override != "" {
		var err error

		if c, err = decodeAndMergeConfig(c, override); err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	if err := json.Unmarshal([]byte(configAsJSON), &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode "+EnvJSONOverride)
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c Config) (string, error) {
	out, err := toml.Marshal(c)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode config as toml")
	}

	return string(out), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c Config) (string, error) {
	var buffer bytes.Buffer

	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", errors.Wrap(err, "failed to encode config as json")
	}

	return buffer.String(), nil
}

// validate checks the settings the daemon cannot start without and fills in defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	switch c.DB.GormEngine {
	case "":
		c.DB.GormEngine = EngineSQLite
	case EngineSQLite, EnginePostgres, EngineMySQL:
	default:
		return errors.Wrapf(ErrUnknownGormEngine, "%s: %q", invalidErrMessage, c.DB.GormEngine)
	}

	if c.Cache.Size <= 0 {
		c.Cache.Size = defaultCacheSize
	}

	if c.Cache.TTL <= 0 {
		c.Cache.TTL = defaultCacheTTL
	}

	if c.Cache.Redis.Enabled {
		if c.Cache.Redis.Addr == "" {
			return errors.Wrap(ErrEmptyRedisAddr, invalidErrMessage)
		}

		if c.Cache.Redis.Channel == "" {
			c.Cache.Redis.Channel = defaultRedisChannel
		}
	}

	if _, err := c.Resolver.Location(); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	if !c.Auth.Disabled && len(c.Auth.APITokenHashes) == 0 {
		return errors.Wrap(ErrNoAPITokens, invalidErrMessage)
	}

	return nil
}
