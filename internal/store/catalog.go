package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/shrimpsizemoose/coursereg/internal/apperrors"
	"github.com/shrimpsizemoose/coursereg/internal/models"
)

const offeringColumns = `id, course_id, faculty_id, capacity, enrolled_count`

func (q *queries) CreateCourse(ctx context.Context, c *models.Course) error {
	_, err := q.namedExec(ctx, `
		INSERT INTO courses (id, name, credits)
		VALUES (:id, :name, :credits)
	`, c)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

func (q *queries) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	var c models.Course
	err := q.get(ctx, &c, `SELECT id, name, credits FROM courses WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return &c, nil
}

func (q *queries) UpdateCourse(ctx context.Context, c *models.Course) error {
	_, err := q.namedExec(ctx, `
		UPDATE courses SET name = :name, credits = :credits
		WHERE id = :id
	`, c)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	return nil
}

func (q *queries) ListCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := q.selectAll(ctx, &courses, `SELECT id, name, credits FROM courses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (q *queries) CreateOffering(ctx context.Context, o *models.Offering) error {
	_, err := q.namedExec(ctx, `
		INSERT INTO offerings (id, course_id, faculty_id, capacity, enrolled_count)
		VALUES (:id, :course_id, :faculty_id, :capacity, :enrolled_count)
	`, o)
	if q.violates(err, KeyOfferingCourseFaculty) {
		return apperrors.New(apperrors.ErrAlreadyAssigned,
			"faculty %s already teaches a section of %s", o.FacultyID, o.CourseID)
	}
	if err != nil {
		return fmt.Errorf("failed to create offering: %w", err)
	}
	return nil
}

func (q *queries) GetOffering(ctx context.Context, id string) (*models.Offering, error) {
	var o models.Offering
	err := q.get(ctx, &o, `SELECT `+offeringColumns+` FROM offerings WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offering: %w", err)
	}
	return &o, nil
}

func (q *queries) LockOfferings(ctx context.Context, ids ...string) ([]models.Offering, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	query, args, err := sqlx.In(
		`SELECT `+offeringColumns+` FROM offerings WHERE id IN (?) ORDER BY id`+q.forUpdate,
		sorted,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build offering lock query: %w", err)
	}

	var offerings []models.Offering
	if err := q.selectAll(ctx, &offerings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to lock offerings: %w", err)
	}
	return offerings, nil
}

func (q *queries) ListOfferings(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, error) {
	where, args := offeringWhere("", filter)

	var offerings []models.Offering
	err := q.selectAll(ctx, &offerings, `SELECT `+offeringColumns+` FROM offerings`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list offerings: %w", err)
	}
	return offerings, nil
}

func (q *queries) UpdateOfferingFaculty(ctx context.Context, id, facultyID string) error {
	_, err := q.exec(ctx, `UPDATE offerings SET faculty_id = ? WHERE id = ?`, facultyID, id)
	if q.violates(err, KeyOfferingCourseFaculty) {
		return apperrors.New(apperrors.ErrAlreadyAssigned,
			"faculty %s already teaches another section of offering %s's course", facultyID, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update offering faculty: %w", err)
	}
	return nil
}

func (q *queries) UpdateOfferingCapacity(ctx context.Context, id string, capacity int) error {
	_, err := q.exec(ctx, `UPDATE offerings SET capacity = ? WHERE id = ?`, capacity, id)
	if err != nil {
		return fmt.Errorf("failed to update offering capacity: %w", err)
	}
	return nil
}

func (q *queries) DeleteOffering(ctx context.Context, id string) (int64, error) {
	n, err := q.affected(ctx, `DELETE FROM offerings WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete offering: %w", err)
	}
	return n, nil
}

func (q *queries) FacultyTeachesCourse(ctx context.Context, facultyID, courseID, excludeOffering string) (bool, error) {
	var n int
	err := q.get(ctx, &n, `
		SELECT COUNT(*) FROM offerings
		WHERE faculty_id = ? AND course_id = ? AND id <> ?
	`, facultyID, courseID, excludeOffering)
	if err != nil {
		return false, fmt.Errorf("failed to check faculty assignment: %w", err)
	}
	return n > 0, nil
}

func (q *queries) SyncEnrolledCount(ctx context.Context, offeringID string) (int, error) {
	_, err := q.exec(ctx, `
		UPDATE offerings
		SET enrolled_count = (SELECT COUNT(*) FROM enrollments WHERE offering_id = ?)
		WHERE id = ?
	`, offeringID, offeringID)
	if err != nil {
		return 0, fmt.Errorf("failed to sync enrolled count: %w", err)
	}

	var n int
	if err := q.get(ctx, &n, `SELECT enrolled_count FROM offerings WHERE id = ?`, offeringID); err != nil {
		return 0, fmt.Errorf("failed to read enrolled count: %w", err)
	}
	return n, nil
}

func (q *queries) SyncAllEnrolledCounts(ctx context.Context) (int64, error) {
	n, err := q.affected(ctx, `
		UPDATE offerings
		SET enrolled_count = (SELECT COUNT(*) FROM enrollments e WHERE e.offering_id = offerings.id)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to sync enrolled counts: %w", err)
	}
	return n, nil
}

// offeringWhere renders an OfferingFilter; alias prefixes the column names.
func offeringWhere(alias string, filter models.OfferingFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if filter.CourseID != "" {
		clauses = append(clauses, alias+"course_id = ?")
		args = append(args, filter.CourseID)
	}
	if filter.FacultyID != "" {
		clauses = append(clauses, alias+"faculty_id = ?")
		args = append(args, filter.FacultyID)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
