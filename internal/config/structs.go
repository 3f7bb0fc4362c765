package config

import (
	"time"
	_ "time/tzdata" // time zones without a system database

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	Title     string
	DB        DB
	Log       logger.Log
	Webserver Webserver
	Auth      Auth
	Cache     Cache
	Resolver  Resolver
}

// Webserver implement webserver settings.
type Webserver struct {
	Port           int    // listening port for the webserver
	URL            string // base url for the webserver
	ShutDownTime   int    // seconds to wait for open requests on shutdown
	DisableRecover bool   // disable recover middleware
	BodyLimit      int    // max request body in bytes, 0 = fiber default
}

// Auth protects the API with static bearer tokens.
type Auth struct {
	// Disabled turns authentication off. Only meant for local development.
	Disabled bool
	// APITokenHashes are argon2id hashes of the accepted bearer tokens.
	APITokenHashes []string
	// Role names the system role whose grants authorize API calls. Empty allows every
	// call of a valid token.
	Role string
}

// Cache configures the decision snapshot cache.
type Cache struct {
	Enabled bool
	Size    int           // entries per cache
	TTL     time.Duration // backstop expiry, writes invalidate explicitly
	Redis   Redis
}

// Redis configures the cross-instance invalidation bus.
type Redis struct {
	Enabled  bool
	Addr     string
	Username string
	Password string
	DB       int
	Channel  string
}

// Resolver settings.
type Resolver struct {
	// TimeZone in which override and row time windows are interpreted. Empty means UTC.
	TimeZone string
}

// Location loads the configured time zone.
func (r Resolver) Location() (*time.Location, error) {
	if r.TimeZone == "" {
		return time.UTC, nil
	}

	return time.LoadLocation(r.TimeZone) //nolint:wrapcheck
}
