package db

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"modernc.org/sqlite"
)

// pragmas are applied through the DSN so every pooled connection gets them.
var pragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

var registerOnce sync.Once
var registerErr error

// Open opens a SQLite database connection and configures pragmas.
// The path ":memory:" opens a private in-memory database restricted to a
// single connection, so every query sees the same data.
func Open(path string) (*sql.DB, error) {
	registerOnce.Do(func() { registerErr = registerFunctions() })
	if registerErr != nil {
		return nil, fmt.Errorf("registering sql functions: %w", registerErr)
	}

	memory := path == ":memory:"

	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	if !memory {
		q.Add("_pragma", "journal_mode(WAL)")
	}

	db, err := sql.Open("sqlite", path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return db, nil
}

// registerFunctions installs casefold(text), a Unicode-aware lower-casing
// function. SQLite's own LIKE and lower() only fold ASCII.
func registerFunctions() error {
	return sqlite.RegisterDeterministicScalarFunction("casefold", 1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case nil:
				return nil, nil
			case string:
				return Fold(v), nil
			case []byte:
				return Fold(string(v)), nil
			default:
				return Fold(fmt.Sprint(v)), nil
			}
		},
	)
}

// Fold returns the case-folded form of s, as used by the casefold SQL function.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// EscapeLike escapes LIKE wildcards in s so it matches literally with ESCAPE '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
