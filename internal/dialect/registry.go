package dialect

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/objsql/internal/sqlfmt"
)

// ErrUnknownDialect is returned by Lookup for unregistered names.
var ErrUnknownDialect = errors.New("unknown dialect")

var registry = map[string]sqlfmt.Dialect{
	"ansi":      sqlfmt.ANSI{},
	"sqlserver": SQLServer{},
	"mysql":     MySQL{},
	"sqlite":    SQLite{},
	"postgres":  Postgres{},
}

// Lookup returns the dialect registered under name (case-insensitive).
func Lookup(name string) (sqlfmt.Dialect, error) {
	d, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownDialect, name, strings.Join(Names(), ", "))
	}
	return d, nil
}

// Names lists the registered dialect names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
