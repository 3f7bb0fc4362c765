package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnknownGormEngine error if config db.gormengine is not supported.
	ErrUnknownGormEngine = errors.New("toml config db.gormengine must be sqlite, postgres or mysql")

	// ErrEmptyRedisAddr error if redis is enabled without an address.
	ErrEmptyRedisAddr = errors.New("toml config cache.redis.addr can not be empty when redis is enabled")

	// ErrNoAPITokens error if authentication is enabled without any token hash.
	ErrNoAPITokens = errors.New("toml config auth.apitokenhashes can not be empty unless auth.disabled is set")
)
