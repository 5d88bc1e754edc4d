// Package testutil builds throwaway stores for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/coursereg/internal/models"
	"github.com/shrimpsizemoose/coursereg/internal/store"
	"github.com/shrimpsizemoose/coursereg/internal/store/sqlite"
)

// NewStore opens a migrated SQLite store in a temp dir, closed on cleanup.
func NewStore(t testing.TB) *sqlite.SQLiteStore {
	t.Helper()

	s, err := sqlite.NewSQLiteStore(&store.DBConfig{
		DSN:          filepath.Join(t.TempDir(), "test.db"),
		Type:         store.DBTypeSQLite,
		RetryInitial: 5 * time.Millisecond,
	})
	require.NoError(t, err, "Failed to create store")

	t.Cleanup(func() {
		require.NoError(t, s.Close(), "Failed to close database")
	})
	return s
}

// Fixture inserts rows directly, bypassing every rule.
type Fixture struct {
	T     testing.TB
	Store store.Store
}

func (f Fixture) Student(id, name string) {
	f.T.Helper()
	err := f.Store.CreateStudent(context.Background(), &models.Student{
		Person: models.Person{ID: id, Name: name, Credential: "-"},
	})
	require.NoError(f.T, err)
}

func (f Fixture) Faculty(id, name string) {
	f.T.Helper()
	err := f.Store.CreateFaculty(context.Background(), &models.Faculty{
		Person: models.Person{ID: id, Name: name, Credential: "-"},
	})
	require.NoError(f.T, err)
}

func (f Fixture) Course(id, name string, credits int) {
	f.T.Helper()
	err := f.Store.CreateCourse(context.Background(), &models.Course{ID: id, Name: name, Credits: credits})
	require.NoError(f.T, err)
}

func (f Fixture) Offering(id, courseID, facultyID string, capacity int) {
	f.T.Helper()
	err := f.Store.CreateOffering(context.Background(), &models.Offering{
		ID:        id,
		CourseID:  courseID,
		FacultyID: facultyID,
		Capacity:  capacity,
	})
	require.NoError(f.T, err)
}
