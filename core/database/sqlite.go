package database

import (
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// SQLiteDriverName is the database/sql driver Connect opens for DriverSQLite.
// It is go-sqlite3 with lower() replaced by strings.ToLower, since the
// built-in only folds ASCII letters.
const SQLiteDriverName = "sqlite3_unicode"

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", strings.ToLower, true)
		},
	})
	sqlx.BindDriver(SQLiteDriverName, sqlx.QUESTION)
}

// DriverName returns the database/sql driver name for c.Driver.
func (c Config) DriverName() string {
	if c.Driver == DriverSQLite {
		return SQLiteDriverName
	}
	return c.Driver
}
