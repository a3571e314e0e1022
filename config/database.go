package config

import (
	"net/url"
	"strings"
)

const (
	DatabaseSchemePostgres = "postgres"
	DatabaseDialectSqlite  = "sqlite3"
)

func isPostgresURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case DatabaseSchemePostgres, "postgresql":
		return true
	}
	return false
}

// DatabaseDialect interprets a database_url setting and returns (dialect, dsn).
// postgres and postgresql URLs are passed to the postgres driver as is;
// anything else is a sqlite file path.
func DatabaseDialect(databaseURL string) (string, string) {
	if isPostgresURL(databaseURL) {
		return DatabaseSchemePostgres, databaseURL
	}
	return DatabaseDialectSqlite, databaseURL
}

// MaskDatabaseURL strips the password from a postgres URL for logging.
func MaskDatabaseURL(databaseURL string) string {
	if !isPostgresURL(databaseURL) {
		return databaseURL
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return DatabaseSchemePostgres
	}
	if u.User != nil {
		u.User = url.User(u.User.Username())
	}
	return u.String()
}
