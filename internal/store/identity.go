package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shrimpsizemoose/coursereg/internal/models"
)

func (q *queries) CreateStudent(ctx context.Context, s *models.Student) error {
	_, err := q.namedExec(ctx, `
		INSERT INTO students (id, name, credential)
		VALUES (:id, :name, :credential)
	`, s)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

func (q *queries) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	var s models.Student
	err := q.get(ctx, &s, `SELECT id, name, credential FROM students WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &s, nil
}

// LockStudent loads the student and, inside a Postgres transaction, holds
// the row until commit. Every write to the student's enrollments takes it
// first.
func (q *queries) LockStudent(ctx context.Context, id string) (*models.Student, error) {
	var s models.Student
	err := q.get(ctx, &s, `SELECT id, name, credential FROM students WHERE id = ?`+q.forUpdate, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock student: %w", err)
	}
	return &s, nil
}

func (q *queries) UpdateStudent(ctx context.Context, s *models.Student) error {
	_, err := q.namedExec(ctx, `
		UPDATE students SET name = :name, credential = :credential
		WHERE id = :id
	`, s)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}
	return nil
}

func (q *queries) ListStudents(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	err := q.selectAll(ctx, &students, `SELECT id, name, credential FROM students ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

func (q *queries) CreateFaculty(ctx context.Context, f *models.Faculty) error {
	_, err := q.namedExec(ctx, `
		INSERT INTO faculty (id, name, credential)
		VALUES (:id, :name, :credential)
	`, f)
	if err != nil {
		return fmt.Errorf("failed to create faculty: %w", err)
	}
	return nil
}

func (q *queries) GetFaculty(ctx context.Context, id string) (*models.Faculty, error) {
	var f models.Faculty
	err := q.get(ctx, &f, `SELECT id, name, credential FROM faculty WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get faculty: %w", err)
	}
	return &f, nil
}

func (q *queries) UpdateFaculty(ctx context.Context, f *models.Faculty) error {
	_, err := q.namedExec(ctx, `
		UPDATE faculty SET name = :name, credential = :credential
		WHERE id = :id
	`, f)
	if err != nil {
		return fmt.Errorf("failed to update faculty: %w", err)
	}
	return nil
}

func (q *queries) ListFaculty(ctx context.Context) ([]models.Faculty, error) {
	var faculty []models.Faculty
	err := q.selectAll(ctx, &faculty, `SELECT id, name, credential FROM faculty ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list faculty: %w", err)
	}
	return faculty, nil
}

func (q *queries) CreateAdmin(ctx context.Context, a *models.Admin) error {
	_, err := q.namedExec(ctx, `
		INSERT INTO admins (id, name, credential)
		VALUES (:id, :name, :credential)
	`, a)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

func (q *queries) GetAdmin(ctx context.Context, id string) (*models.Admin, error) {
	var a models.Admin
	err := q.get(ctx, &a, `SELECT id, name, credential FROM admins WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &a, nil
}

func (q *queries) UserIDTaken(ctx context.Context, id string) (bool, error) {
	var n int
	err := q.get(ctx, &n, `
		SELECT
			(SELECT COUNT(*) FROM students WHERE id = ?) +
			(SELECT COUNT(*) FROM faculty WHERE id = ?) +
			(SELECT COUNT(*) FROM admins WHERE id = ?)
	`, id, id, id)
	if err != nil {
		return false, fmt.Errorf("failed to check user id: %w", err)
	}
	return n > 0, nil
}
