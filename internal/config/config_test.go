package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func etcPath(t *testing.T) string {
	t.Helper()

	projectRoot, err := filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	return filepath.Join(projectRoot, "etc") + string(filepath.Separator)
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(etcPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title == "" {
		t.Error("Config.Title should not be empty")
	}

	if cfg.Webserver.Port == 0 {
		t.Error("Webserver.Port should not be 0")
	}

	if cfg.DB.GormEngine != EngineSQLite {
		t.Errorf("DB.GormEngine = %q, want %q", cfg.DB.GormEngine, EngineSQLite)
	}

	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache.TTL = %v, want 5m", cfg.Cache.TTL)
	}

	if cfg.Log.File.Access.File != "access.log" {
		t.Errorf("Log.File.Access.File = %q, want access.log", cfg.Log.File.Access.File)
	}

	if cfg.Log.AppName == "" {
		t.Error("Log.AppName should not be empty")
	}
}

func TestReadConfigMissingFile(t *testing.T) {
	if _, err := ReadConfig(t.TempDir()); err == nil {
		t.Error("ReadConfig() expected an error for a directory without main.toml")
	}
}

func TestConfigValidation(t *testing.T) {
	valid := func() Config {
		return Config{
			Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
			Auth:      Auth{APITokenHashes: []string{"$argon2id$v=19$m=65536,t=1,p=2$c2FsdA$aGFzaA"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Webserver.Port = 0 }, wantErr: true},
		{name: "missing URL", mutate: func(c *Config) { c.Webserver.URL = "" }, wantErr: true},
		{name: "unknown engine", mutate: func(c *Config) { c.DB.GormEngine = "oracle" }, wantErr: true},
		{name: "postgres engine", mutate: func(c *Config) { c.DB.GormEngine = EnginePostgres }},
		{name: "redis without addr", mutate: func(c *Config) { c.Cache.Redis.Enabled = true }, wantErr: true},
		{name: "bad time zone", mutate: func(c *Config) { c.Resolver.TimeZone = "Mars/Olympus" }, wantErr: true},
		{name: "no tokens", mutate: func(c *Config) { c.Auth.APITokenHashes = nil }, wantErr: true},
		{
			name: "auth disabled without tokens",
			mutate: func(c *Config) {
				c.Auth.APITokenHashes = nil
				c.Auth.Disabled = true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)

			err := validate(&c)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	c := Config{
		Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
		Auth:      Auth{Disabled: true},
		Cache:     Cache{Redis: Redis{Enabled: true, Addr: "localhost:6379"}},
	}

	if err := validate(&c); err != nil {
		t.Fatalf("validate() error = %v", err)
	}

	if c.Webserver.ShutDownTime != defaultShutDownTime {
		t.Errorf("ShutDownTime = %d, want %d", c.Webserver.ShutDownTime, defaultShutDownTime)
	}

	if c.DB.GormEngine != EngineSQLite {
		t.Errorf("GormEngine = %q, want %q", c.DB.GormEngine, EngineSQLite)
	}

	if c.Cache.Size != defaultCacheSize || c.Cache.TTL != defaultCacheTTL {
		t.Errorf("Cache = %+v, want defaults", c.Cache)
	}

	if c.Cache.Redis.Channel != defaultRedisChannel {
		t.Errorf("Redis.Channel = %q, want %q", c.Cache.Redis.Channel, defaultRedisChannel)
	}
}

func TestReadConfigWithJSONOverride(t *testing.T) {
	t.Setenv(EnvJSONOverride, `{"Title":"Test Override","Webserver":{"Port":9090},"Resolver":{"TimeZone":"Europe/Berlin"}}`)

	cfg, err := ReadConfig(etcPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title != "Test Override" {
		t.Errorf("Title = %v, want %v", cfg.Title, "Test Override")
	}

	if cfg.Webserver.Port != 9090 {
		t.Errorf("Webserver.Port = %v, want %v", cfg.Webserver.Port, 9090)
	}

	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL from main.toml should survive the override")
	}

	loc, err := cfg.Resolver.Location()
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Errorf("Resolver.Location() = %v, %v", loc, err)
	}
}

func TestReadConfigWithBrokenJSONOverride(t *testing.T) {
	t.Setenv(EnvJSONOverride, `{"Title":`)

	if _, err := ReadConfig(etcPath(t)); err == nil {
		t.Error("ReadConfig() expected an error for a broken override")
	}
}

func TestDumpConfig(t *testing.T) {
	cfg := Config{
		Title:     "Test",
		DevMode:   true,
		Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
		Auth:      Auth{APITokenHashes: []string{"hash"}},
	}

	tomlStr, err := DumpConfig(cfg)
	if err != nil {
		t.Fatalf("DumpConfig() error = %v", err)
	}

	if !strings.Contains(tomlStr, "Title") || !strings.Contains(tomlStr, "Test") {
		t.Errorf("DumpConfig() output should contain Title, got %s", tomlStr)
	}

	jsonStr, err := DumpConfigJSON(cfg)
	if err != nil {
		t.Fatalf("DumpConfigJSON() error = %v", err)
	}

	if !strings.Contains(jsonStr, `"Title": "Test"`) {
		t.Errorf("DumpConfigJSON() output should contain Title, got %s", jsonStr)
	}
}
