package database

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DriverPostgres selects PostgreSQL via lib/pq.
	DriverPostgres = "postgres"
	// DriverSQLite selects SQLite via mattn/go-sqlite3.
	DriverSQLite = "sqlite3"
)

// Config holds database connection settings shared across bots.
type Config struct {
	Driver         string `yaml:"driver" envconfig:"DB_DRIVER"`
	DSN            string `yaml:"dsn" envconfig:"DATABASE_URL"`
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// Normalize fills defaults and validates the driver selection.
func (c *Config) Normalize() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	switch c.Driver {
	case "", "postgresql", DriverPostgres:
		c.Driver = DriverPostgres
	case "sqlite":
		c.Driver = DriverSQLite
	case DriverSQLite:
	default:
		return fmt.Errorf("invalid database.driver %q; allowed: postgres, sqlite3", c.Driver)
	}
	if c.Driver == DriverSQLite && strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("database.dsn is required for sqlite3")
	}
	if c.Driver == DriverPostgres && strings.TrimSpace(c.DSN) == "" && strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("database.dsn or database.host is required for postgres")
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 5
	}
	if c.Driver == DriverSQLite {
		// a single writer avoids SQLITE_BUSY on concurrent inserts
		c.MaxConnections = 1
	}
	return nil
}

// ConnString returns the driver-specific data source name.
func (c Config) ConnString() string {
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		return dsn
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// Target describes the connection without credentials for logs.
func (c Config) Target() string {
	if c.Driver == DriverSQLite {
		return c.DSN
	}
	if c.Host != "" {
		return c.Host + ":" + c.Port + "/" + c.Name
	}
	u, err := url.Parse(c.DSN)
	if err != nil {
		return "postgres"
	}
	return u.Host + u.Path
}
