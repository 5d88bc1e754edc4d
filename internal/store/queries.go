package store

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// queries runs every statement against either the pool or an open
// transaction. Statements are written with ? placeholders and rebound for
// the driver in use.
type queries struct {
	ext       sqlx.ExtContext
	forUpdate string
	unique    func(err error, key string) bool
}

func newQueries(ext sqlx.ExtContext, dialect Dialect) *queries {
	return &queries{ext: ext, forUpdate: dialect.ForUpdate, unique: dialect.UniqueViolation}
}

func (q *queries) violates(err error, key string) bool {
	return q.unique != nil && q.unique(err, key)
}

func (q *queries) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, q.ext, dest, q.ext.Rebind(query), args...)
}

func (q *queries) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, q.ext, dest, q.ext.Rebind(query), args...)
}

func (q *queries) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return q.ext.ExecContext(ctx, q.ext.Rebind(query), args...)
}

func (q *queries) namedExec(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	return sqlx.NamedExecContext(ctx, q.ext, query, arg)
}

// affected executes a statement and returns the number of rows it touched.
func (q *queries) affected(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := q.exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
