package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shrimpsizemoose/coursereg/internal/apperrors"
	"github.com/shrimpsizemoose/coursereg/internal/models"
)

const enrollmentColumns = `id, student_id, offering_id, enrolled_at`

func (q *queries) InsertEnrollment(ctx context.Context, e *models.Enrollment) error {
	_, err := q.namedExec(ctx, `
		INSERT INTO enrollments (id, student_id, offering_id, enrolled_at)
		VALUES (:id, :student_id, :offering_id, :enrolled_at)
	`, e)
	if q.violates(err, KeyEnrollmentStudentOffering) {
		return apperrors.New(apperrors.ErrAlreadyEnrolled,
			"student %s is already enrolled in %s", e.StudentID, e.OfferingID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert enrollment: %w", err)
	}
	return nil
}

func (q *queries) DeleteEnrollment(ctx context.Context, id string) (int64, error) {
	n, err := q.affected(ctx, `DELETE FROM enrollments WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete enrollment: %w", err)
	}
	return n, nil
}

func (q *queries) DeleteEnrollmentFor(ctx context.Context, studentID, offeringID string) (int64, error) {
	n, err := q.affected(ctx, `
		DELETE FROM enrollments WHERE student_id = ? AND offering_id = ?
	`, studentID, offeringID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete enrollment: %w", err)
	}
	return n, nil
}

func (q *queries) GetEnrollmentFor(ctx context.Context, studentID, offeringID string) (*models.Enrollment, error) {
	var e models.Enrollment
	err := q.get(ctx, &e, `
		SELECT `+enrollmentColumns+` FROM enrollments
		WHERE student_id = ? AND offering_id = ?
	`, studentID, offeringID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return &e, nil
}

// HasCourseEnrollment reports whether the student holds a seat in any offering
// of the course other than excludeOffering.
func (q *queries) HasCourseEnrollment(ctx context.Context, studentID, courseID, excludeOffering string) (bool, error) {
	var n int
	err := q.get(ctx, &n, `
		SELECT COUNT(*) FROM enrollments e
		JOIN offerings o ON o.id = e.offering_id
		WHERE e.student_id = ? AND o.course_id = ? AND o.id <> ?
	`, studentID, courseID, excludeOffering)
	if err != nil {
		return false, fmt.Errorf("failed to check course enrollment: %w", err)
	}
	return n > 0, nil
}

func (q *queries) ListEnrollmentsByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	var list []models.Enrollment
	err := q.selectAll(ctx, &list, `
		SELECT `+enrollmentColumns+` FROM enrollments
		WHERE student_id = ?
		ORDER BY enrolled_at, id
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return list, nil
}

func (q *queries) ListEnrollmentsByOffering(ctx context.Context, offeringID string) ([]models.Enrollment, error) {
	var list []models.Enrollment
	err := q.selectAll(ctx, &list, `
		SELECT `+enrollmentColumns+` FROM enrollments
		WHERE offering_id = ?
		ORDER BY enrolled_at, id
	`, offeringID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return list, nil
}

func (q *queries) CountEnrollments(ctx context.Context, offeringID string) (int, error) {
	var n int
	err := q.get(ctx, &n, `SELECT COUNT(*) FROM enrollments WHERE offering_id = ?`, offeringID)
	if err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return n, nil
}

func (q *queries) DeleteAllEnrollments(ctx context.Context) (int64, error) {
	n, err := q.affected(ctx, `DELETE FROM enrollments`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete enrollments: %w", err)
	}
	return n, nil
}
