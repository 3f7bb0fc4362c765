package config

// Supported gorm engines.
const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
	EngineMySQL    = "mysql"
)

// DB holds the database configuration settings.
type DB struct {
	GormEngine string // sqlite, postgres or mysql
	Extras     string // driver specific DSN parameters
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	Path       string // sqlite database file, ":memory:" for a throwaway database
	LogLevel   string // gorm log level: silent, error, warn, info
}
