package telemetry

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

type dbContextKey string

type registerFunc func(name string, fn func(*gorm.DB)) error

// gormHook pairs the registration points around one GORM processor.
// An empty operation means the verb is read from the SQL text.
type gormHook struct {
	processor string
	operation string
	before    registerFunc
	after     registerFunc
}

func gormHooks(db *gorm.DB) []gormHook {
	cb := db.Callback()
	return []gormHook{
		{"create", "INSERT", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", "SELECT", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", "UPDATE", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", "DELETE", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", "", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", "", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
}

// registerTimedCallbacks stores a start time under key before each statement
// and calls after with the statement's operation and elapsed time.
func registerTimedCallbacks(db *gorm.DB, prefix string, key dbContextKey, after func(db *gorm.DB, operation string, elapsed time.Duration)) error {
	before := func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		db.Statement.Context = context.WithValue(ctx, key, time.Now())
	}

	for _, hook := range gormHooks(db) {
		afterFn := func(db *gorm.DB) {
			var elapsed time.Duration
			if db.Statement.Context != nil {
				if start, ok := db.Statement.Context.Value(key).(time.Time); ok {
					elapsed = time.Since(start)
				}
			}
			op := hook.operation
			if op == "" {
				op = detectOperationType(db.Statement.SQL.String())
			}
			after(db, op, elapsed)
		}

		if err := hook.before(prefix+":before_"+hook.processor, before); err != nil {
			return err
		}
		if err := hook.after(prefix+":after_"+hook.processor, afterFn); err != nil {
			return err
		}
	}
	return nil
}

// detectOperationType derives the SQL verb for raw statements
func detectOperationType(sql string) string {
	sql = strings.TrimSpace(strings.ToUpper(sql))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, verb) {
			return verb
		}
	}
	return "OTHER"
}
