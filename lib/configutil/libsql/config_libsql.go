package configlibsql

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type Struct struct {
	// a filesystem path, ":memory:" or a libsql:// (or https://) url
	File      string `json:"file"`
	AuthToken string `json:"auth_token"`
}

func (config Struct) remote() bool {
	return strings.HasPrefix(config.File, "libsql://") ||
		strings.HasPrefix(config.File, "https://") ||
		strings.HasPrefix(config.File, "http://")
}

// OpenDB opens the database and applies `schema` to it.
func (config Struct) OpenDB(schema string) (*sql.DB, error) {
	if config.File == "" {
		return nil, fmt.Errorf("a path was not specified")
	}

	var db *sql.DB
	var err error
	switch {
	case config.remote():
		dsn := config.File
		if config.AuthToken != "" {
			dsn = fmt.Sprintf("%s?authToken=%s", dsn, config.AuthToken)
		}
		db, err = sql.Open("libsql", dsn)
		if err != nil {
			return nil, err
		}
	default:
		if config.File != ":memory:" {
			err = os.MkdirAll(filepath.Dir(config.File), 0755)
			if err != nil {
				return nil, err
			}
		}
		db, err = sql.Open("sqlite", config.File)
		if err != nil {
			return nil, err
		}
		// see this stackoverflow post for information on why the following
		// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
		db.SetMaxOpenConns(1)
		if config.File != ":memory:" {
			_, err = db.Exec("PRAGMA journal_mode=WAL")
			if err != nil {
				db.Close()
				return nil, err
			}
		}
	}

	if schema != "" {
		_, err = db.Exec(schema)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}
