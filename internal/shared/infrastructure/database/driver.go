package database

import (
	"strconv"
	"strings"
)

// Driver represents a database backend type.
type Driver string

const (
	// DriverPostgres represents PostgreSQL.
	DriverPostgres Driver = "postgres"
	// DriverSQLite represents the embedded SQLite store.
	DriverSQLite Driver = "sqlite"
)

// String returns the string representation of the driver.
func (d Driver) String() string {
	return string(d)
}

// IsValid returns true if the driver is a known type.
func (d Driver) IsValid() bool {
	return d == DriverPostgres || d == DriverSQLite
}

// DetectDriver infers the driver from a connection string. An empty URL
// selects SQLite so the service runs without any setup.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(url, "sqlite://"),
		strings.HasPrefix(url, "file:"),
		strings.HasSuffix(url, ".db"),
		strings.HasSuffix(url, ".sqlite"),
		strings.HasSuffix(url, ".sqlite3"):
		return DriverSQLite
	default:
		return DriverPostgres
	}
}

// Rebind rewrites '?' placeholders into the driver's native form. Queries
// are written once with '?' and rebound for PostgreSQL ($1, $2, ...).
// Question marks inside single-quoted literals are left alone.
func Rebind(driver Driver, query string) string {
	if driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
