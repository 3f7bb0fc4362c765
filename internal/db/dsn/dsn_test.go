package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/config"
)

func TestCreate(t *testing.T) {
	base := config.DB{Host: "db", Port: 5432, User: "u", Password: "p", Name: "perm"}

	testCases := []struct {
		name     string
		engine   string
		extras   string
		path     string
		expected string
	}{
		{"postgres", config.EnginePostgres, "sslmode=disable&TimeZone=UTC", "", "host=db port=5432 user=u password=p dbname=perm sslmode=disable TimeZone=UTC"},
		{"mysql", config.EngineMySQL, "parseTime=true", "", "u:p@tcp(db:5432)/perm?parseTime=true"},
		{"sqlite file", config.EngineSQLite, "", "/tmp/perm.db", "/tmp/perm.db"},
		{"sqlite pragmas", config.EngineSQLite, "_pragma=foreign_keys(1)", "perm.db", "perm.db?_pragma=foreign_keys(1)"},
		{"sqlite default", config.EngineSQLite, "", "", ":memory:"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			cfg.GormEngine = tc.engine
			cfg.Extras = tc.extras
			cfg.Path = tc.path

			assert.Equal(t, tc.expected, Create(cfg))
		})
	}
}
