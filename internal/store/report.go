package store

import (
	"context"
	"fmt"

	"github.com/shrimpsizemoose/coursereg/internal/models"
)

func (q *queries) Roster(ctx context.Context, offeringID string) ([]models.RosterEntry, error) {
	var roster []models.RosterEntry
	err := q.selectAll(ctx, &roster, `
		SELECT e.id AS enrollment_id, s.id AS student_id, s.name AS student_name
		FROM enrollments e
		JOIN students s ON s.id = e.student_id
		WHERE e.offering_id = ?
		ORDER BY s.id
	`, offeringID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	return roster, nil
}

func (q *queries) OfferingDetails(ctx context.Context, filter models.OfferingFilter) ([]models.OfferingDetail, error) {
	where, args := offeringWhere("o.", filter)

	var details []models.OfferingDetail
	err := q.selectAll(ctx, &details, `
		SELECT
			o.id AS offering_id,
			c.id AS course_id,
			c.name AS course_name,
			c.credits AS credits,
			f.id AS faculty_id,
			f.name AS faculty_name,
			o.capacity AS capacity,
			o.enrolled_count AS enrolled_count,
			(SELECT COUNT(*) FROM enrollments e WHERE e.offering_id = o.id) AS live_count
		FROM offerings o
		JOIN courses c ON c.id = o.course_id
		JOIN faculty f ON f.id = o.faculty_id
	`+where+`
		ORDER BY c.id, o.id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load offering details: %w", err)
	}
	return details, nil
}

func (q *queries) StudentSchedule(ctx context.Context, studentID string) ([]models.ScheduleEntry, error) {
	var schedule []models.ScheduleEntry
	err := q.selectAll(ctx, &schedule, `
		SELECT
			e.id AS enrollment_id,
			o.id AS offering_id,
			c.id AS course_id,
			c.name AS course_name,
			c.credits AS credits,
			f.id AS faculty_id,
			f.name AS faculty_name,
			e.enrolled_at AS enrolled_at
		FROM enrollments e
		JOIN offerings o ON o.id = e.offering_id
		JOIN courses c ON c.id = o.course_id
		JOIN faculty f ON f.id = o.faculty_id
		WHERE e.student_id = ?
		ORDER BY c.id, o.id
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}
	return schedule, nil
}

func (q *queries) CounterDrift(ctx context.Context) ([]models.CounterDrift, error) {
	var drift []models.CounterDrift
	err := q.selectAll(ctx, &drift, `
		SELECT offering_id, cached, live FROM (
			SELECT
				o.id AS offering_id,
				o.enrolled_count AS cached,
				(SELECT COUNT(*) FROM enrollments e WHERE e.offering_id = o.id) AS live
			FROM offerings o
		) counts
		WHERE cached <> live
		ORDER BY offering_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to compute counter drift: %w", err)
	}
	return drift, nil
}
