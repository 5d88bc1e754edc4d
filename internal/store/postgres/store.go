package postgres

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shrimpsizemoose/coursereg/internal/store"
	"github.com/shrimpsizemoose/coursereg/migrations"
)

type PostgresStore struct {
	store.BaseStore
}

var dialect = store.Dialect{
	Name:            "postgres",
	ForUpdate:       " FOR UPDATE",
	IsTransient:     isTransient,
	UniqueViolation: uniqueViolation,
}

func NewPostgresStore(config *store.DBConfig) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{BaseStore: store.NewBaseStore(db, dialect, config)}

	if err := s.ApplyMigrations(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

// serialization_failure, deadlock_detected, lock_not_available
var transientCodes = map[pq.ErrorCode]bool{
	"40001": true,
	"40P01": true,
	"55P03": true,
}

func isTransient(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return transientCodes[pqErr.Code]
}

func uniqueViolation(err error, key string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == key
}
