package db

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"modernc.org/sqlite"
)

// foldFunc is a Unicode-aware replacement for SQLite's lower(), which only
// folds ASCII.
const foldFunc = "doorbot_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, foldText)
}

func foldText(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch x := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(x), nil
	case []byte:
		return strings.ToLower(string(x)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument %T", foldFunc, x)
	}
}
