package database

import (
	"strconv"
	"strings"
)

// Driver names a supported backend
type Driver string

const (
	SQLite   Driver = "sqlite"
	Postgres Driver = "postgres"
)

// ParseDriver maps a backend name to a Driver
func ParseDriver(name string) (Driver, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3", "":
		return SQLite, true
	case "postgres", "postgresql", "pg":
		return Postgres, true
	default:
		return "", false
	}
}

// Rebind rewrites '?' placeholders into the driver's native form.
// Placeholders inside single-quoted literals are left alone.
func (drv Driver) Rebind(query string) string {
	if drv != Postgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
