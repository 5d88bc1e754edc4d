package store

import "time"

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

type DBConfig struct {
	DSN  string
	Type DatabaseType

	// MaxAttempts bounds how many times a transaction is restarted after
	// lock contention. RetryInitial is the first backoff interval.
	MaxAttempts  uint
	RetryInitial time.Duration
}

const (
	DefaultMaxAttempts  = 5
	DefaultRetryInitial = 100 * time.Millisecond
)

func (c *DBConfig) attempts() uint {
	if c.MaxAttempts == 0 {
		return DefaultMaxAttempts
	}
	return c.MaxAttempts
}

func (c *DBConfig) initial() time.Duration {
	if c.RetryInitial <= 0 {
		return DefaultRetryInitial
	}
	return c.RetryInitial
}
