package sqlstore

import (
	"fmt"
	"strconv"
	"strings"
)

// dialect captures what differs between the supported SQL engines.
type dialect struct {
	name       string // KEEP_STORE_DRIVER value
	driverName string // database/sql driver
	schema     []string
	maxConns   int
	numbered   bool // $1, $2 instead of ?
}

var dialects = map[string]dialect{
	"postgres": {
		name:       "postgres",
		driverName: "pgx",
		maxConns:   5,
		numbered:   true,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS bookmarks (
				id         TEXT PRIMARY KEY,
				owner_id   TEXT NOT NULL,
				url        TEXT NOT NULL,
				title      TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS bookmarks_owner_created_idx
				ON bookmarks (owner_id, created_at DESC)`,
		},
	},
	"sqlite": {
		name:       "sqlite",
		driverName: "sqlite3",
		// sqlite serializes writers, a single connection avoids SQLITE_BUSY
		maxConns: 1,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS bookmarks (
				id         TEXT PRIMARY KEY,
				owner_id   TEXT NOT NULL,
				url        TEXT NOT NULL,
				title      TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS bookmarks_owner_created_idx
				ON bookmarks (owner_id, created_at DESC)`,
		},
	},
}

func lookupDialect(name string) (dialect, error) {
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported sql driver %q", name)
	}
	return d, nil
}

// rebind rewrites ? placeholders for engines that use numbered parameters.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
