package store

import (
	"context"
	"fmt"

	"github.com/shrimpsizemoose/coursereg/internal/apperrors"
)

func (q *queries) ensureSequence(ctx context.Context, name string, start int64) error {
	_, err := q.exec(ctx, `
		INSERT INTO sequences (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO NOTHING
	`, name, start)
	if err != nil {
		return fmt.Errorf("failed to init sequence %s: %w", name, err)
	}
	return nil
}

// NextSequence increments the named counter and returns the new value. A
// missing counter is created at start, so the first value handed out is start+1.
func (q *queries) NextSequence(ctx context.Context, name string, start int64) (int64, error) {
	if err := q.ensureSequence(ctx, name, start); err != nil {
		return 0, err
	}

	if _, err := q.exec(ctx, `UPDATE sequences SET value = value + 1 WHERE name = ?`, name); err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}

	var value int64
	if err := q.get(ctx, &value, `SELECT value FROM sequences WHERE name = ?`, name); err != nil {
		return 0, fmt.Errorf("failed to read sequence %s: %w", name, err)
	}
	return value, nil
}

// CurrentSequence returns the last value handed out, or start if none was.
func (q *queries) CurrentSequence(ctx context.Context, name string, start int64) (int64, error) {
	if err := q.ensureSequence(ctx, name, start); err != nil {
		return 0, err
	}

	var value int64
	if err := q.get(ctx, &value, `SELECT value FROM sequences WHERE name = ?`, name); err != nil {
		return 0, fmt.Errorf("failed to read sequence %s: %w", name, err)
	}
	return value, nil
}

// SetSequence moves the counter forward so the next value handed out is
// value+1. Moving it backwards could reissue ids and is refused.
func (q *queries) SetSequence(ctx context.Context, name string, value int64) error {
	if err := q.ensureSequence(ctx, name, value); err != nil {
		return err
	}

	var current int64
	if err := q.get(ctx, &current, `SELECT value FROM sequences WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to read sequence %s: %w", name, err)
	}
	if value < current {
		return apperrors.New(apperrors.ErrSequenceBackwards, "sequence %s is at %d, refusing to set %d", name, current, value)
	}

	if _, err := q.exec(ctx, `UPDATE sequences SET value = ? WHERE name = ?`, value, name); err != nil {
		return fmt.Errorf("failed to set sequence %s: %w", name, err)
	}
	return nil
}
