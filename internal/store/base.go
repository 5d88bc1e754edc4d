package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/cenkalti/backoff/v5"
	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/coursereg/internal/apperrors"
	"github.com/shrimpsizemoose/coursereg/internal/metrics"
)

// Dialect captures what differs between database engines.
type Dialect struct {
	Name string
	// ForUpdate is appended to row-locking selects. Empty for engines that
	// lock the whole database for the length of a write transaction.
	ForUpdate string
	// Translate rewrites the Postgres-flavoured migrations, nil means as is.
	Translate func(string) string
	// IsTransient reports lock contention that is worth a retry.
	IsTransient func(error) bool
	// UniqueViolation reports whether err broke the named unique key.
	UniqueViolation func(err error, key string) bool
}

// Unique keys the queries translate into domain conflicts.
const (
	KeyOfferingCourseFaculty     = "offerings_course_faculty_key"
	KeyEnrollmentStudentOffering = "enrollments_student_offering_key"
)

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	*queries
	DB *sqlx.DB

	dialect Dialect
	config  *DBConfig
}

func NewBaseStore(db *sqlx.DB, dialect Dialect, config *DBConfig) BaseStore {
	return BaseStore{
		queries: newQueries(db, dialect),
		DB:      db,
		dialect: dialect,
		config:  config,
	}
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations in name order, translating dialect if needed
func (s *BaseStore) ApplyMigrations(migrations fs.FS) error {
	files, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := fs.ReadFile(migrations, file.Name())
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if s.dialect.Translate != nil {
			sql = s.dialect.Translate(sql)
		}

		logger.Debug.Printf("Applying migration %s (%s)", file.Name(), s.dialect.Name)
		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	cfg := s.config
	if cfg == nil {
		cfg = &DBConfig{}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.initial()

	attempt := 0
	op := func() (struct{}, error) {
		attempt++
		err := s.runTx(ctx, fn)
		if err == nil {
			return struct{}{}, nil
		}
		if s.transient(err) {
			metrics.StorageRetries.WithLabelValues(s.dialect.Name).Inc()
			logger.Debug.Printf("Transaction hit lock contention (attempt %d/%d): %v", attempt, cfg.attempts(), err)
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(cfg.attempts()),
	)
	if err == nil {
		return nil
	}
	if apperrors.Kind(err) != nil {
		return err
	}
	if s.transient(err) {
		logger.Error.Printf("Giving up after %d attempts: %v", attempt, err)
		return apperrors.StorageFailure("lock contention", err)
	}
	return apperrors.StorageFailure("transaction failed", err)
}

func (s *BaseStore) runTx(ctx context.Context, fn func(q Queries) error) (err error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, context.Canceled) {
				logger.Debug.Printf("Rollback failed: %v", rbErr)
			}
		}
	}()

	if err = fn(newQueries(tx, s.dialect)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *BaseStore) transient(err error) bool {
	return s.dialect.IsTransient != nil && s.dialect.IsTransient(err)
}
