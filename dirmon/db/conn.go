package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/go-libsql"
)

// ConnectToDB opens a libsql database. Local DSNs use the "file:" scheme and
// have their parent directory created; anything else is treated as a remote
// URL, with authToken appended when set.
func ConnectToDB(dsn string, authToken ...string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn cannot be empty")
	}

	if strings.HasPrefix(dsn, "file:") {
		path := strings.TrimPrefix(dsn, "file:")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	} else if len(authToken) > 0 && authToken[0] != "" {
		u, err := url.Parse(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid database url: %w", err)
		}
		q := u.Query()
		q.Set("authToken", authToken[0])
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
