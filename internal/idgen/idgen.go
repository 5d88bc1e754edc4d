// Package idgen hands out class ids shared by offerings and enrollments.
//
// Ids look like BL202627100001: a prefix, the current year, the last two
// digits of the next year and a six digit value of a persisted counter.
package idgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shrimpsizemoose/coursereg/internal/metrics"
	"github.com/shrimpsizemoose/coursereg/internal/store"
)

const (
	DefaultPrefix   = "BL"
	DefaultStart    = 100000
	DefaultSequence = "global_class_id_sequence"
)

type Generator struct {
	Prefix   string
	Start    int64
	Sequence string

	now func() time.Time
}

func New(prefix string, start int64) *Generator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if start <= 0 {
		start = DefaultStart
	}
	return &Generator{
		Prefix:   strings.ToUpper(prefix),
		Start:    start,
		Sequence: DefaultSequence,
		now:      time.Now,
	}
}

// WithClock replaces the time source, used by tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Next advances the counter through q. Called inside a transaction the id is
// only burned if that transaction commits.
func (g *Generator) Next(ctx context.Context, q store.SequenceQueries) (string, error) {
	seq, err := q.NextSequence(ctx, g.Sequence, g.Start)
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	metrics.IssuedIDs.Inc()
	return g.Format(seq), nil
}

func (g *Generator) Format(seq int64) string {
	year := g.now().Year()
	return fmt.Sprintf("%s%d%02d%06d", g.Prefix, year, (year+1)%100, seq)
}

// Current returns the last counter value handed out.
func (g *Generator) Current(ctx context.Context, q store.SequenceQueries) (int64, error) {
	return q.CurrentSequence(ctx, g.Sequence, g.Start)
}

// Set makes value+1 the next counter value. It never moves backwards.
func (g *Generator) Set(ctx context.Context, q store.SequenceQueries, value int64) error {
	return q.SetSequence(ctx, g.Sequence, value)
}
