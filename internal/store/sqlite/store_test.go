// internal/store/sqlite/store_test.go
package sqlite

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/coursereg/internal/apperrors"
	"github.com/shrimpsizemoose/coursereg/internal/models"
	"github.com/shrimpsizemoose/coursereg/internal/store"
)

// setupTestDB creates a file backed SQLite database with migrations applied
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	s, err := NewSQLiteStore(&store.DBConfig{
		DSN:  filepath.Join(t.TempDir(), "test.db"),
		Type: store.DBTypeSQLite,
	})
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		err := s.Close()
		require.NoError(t, err, "Failed to close database")
	}

	return s, cleanup
}

type testData struct {
	store *SQLiteStore
	ctx   context.Context
	now   time.Time
}

func setupTestData(t *testing.T) (*testData, func()) {
	s, cleanup := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.CreateStudent(ctx, &models.Student{Person: models.Person{ID: "S1", Name: "Ann", Credential: "x"}}))
	require.NoError(t, s.CreateStudent(ctx, &models.Student{Person: models.Person{ID: "S2", Name: "Bob", Credential: "x"}}))
	require.NoError(t, s.CreateFaculty(ctx, &models.Faculty{Person: models.Person{ID: "F1", Name: "Dr. Lee", Credential: "x"}}))
	require.NoError(t, s.CreateFaculty(ctx, &models.Faculty{Person: models.Person{ID: "F2", Name: "Dr. Kim", Credential: "x"}}))
	require.NoError(t, s.CreateCourse(ctx, &models.Course{ID: "CS101", Name: "Intro", Credits: 3}))
	require.NoError(t, s.CreateOffering(ctx, &models.Offering{ID: "O1", CourseID: "CS101", FacultyID: "F1", Capacity: 2}))
	require.NoError(t, s.CreateOffering(ctx, &models.Offering{ID: "O2", CourseID: "CS101", FacultyID: "F2", Capacity: 0}))

	return &testData{
		store: s,
		ctx:   ctx,
		now:   time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
	}, cleanup
}

func (td *testData) enroll(t *testing.T, id, student, offering string) {
	t.Helper()
	err := td.store.InsertEnrollment(td.ctx, &models.Enrollment{
		ID:         id,
		StudentID:  student,
		OfferingID: offering,
		EnrolledAt: td.now,
	})
	require.NoError(t, err)
}

func TestMain(m *testing.M) {
	log.Println("Starting SQLite store tests...")
	code := m.Run()
	log.Println("Finished SQLite store tests")
	os.Exit(code)
}

func TestIdentityOperations(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	t.Run("get student", func(t *testing.T) {
		got, err := td.store.GetStudent(td.ctx, "S1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Ann", got.Name)
	})

	t.Run("get non-existent student", func(t *testing.T) {
		got, err := td.store.GetStudent(td.ctx, "NOPE")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("update faculty", func(t *testing.T) {
		f, err := td.store.GetFaculty(td.ctx, "F1")
		require.NoError(t, err)
		f.Name = "Prof. Lee"
		require.NoError(t, td.store.UpdateFaculty(td.ctx, f))

		got, err := td.store.GetFaculty(td.ctx, "F1")
		require.NoError(t, err)
		assert.Equal(t, "Prof. Lee", got.Name)
	})

	t.Run("user id taken across roles", func(t *testing.T) {
		require.NoError(t, td.store.CreateAdmin(td.ctx, &models.Admin{Person: models.Person{ID: "ADMIN", Name: "Admin", Credential: "x"}}))

		for _, id := range []string{"S1", "F2", "ADMIN"} {
			taken, err := td.store.UserIDTaken(td.ctx, id)
			require.NoError(t, err)
			assert.True(t, taken, id)
		}
		taken, err := td.store.UserIDTaken(td.ctx, "FREE")
		require.NoError(t, err)
		assert.False(t, taken)
	})
}

func TestLedgerOperations(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	td.enroll(t, "E1", "S1", "O1")

	t.Run("unique student offering pair", func(t *testing.T) {
		err := td.store.InsertEnrollment(td.ctx, &models.Enrollment{ID: "E2", StudentID: "S1", OfferingID: "O1", EnrolledAt: td.now})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyEnrolled)
		assert.NotErrorIs(t, err, apperrors.ErrStorageFailure)
	})

	t.Run("get enrollment keeps timestamp", func(t *testing.T) {
		got, err := td.store.GetEnrollmentFor(td.ctx, "S1", "O1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "E1", got.ID)
		assert.True(t, td.now.Equal(got.EnrolledAt))
	})

	t.Run("course enrollment check honours exclusion", func(t *testing.T) {
		has, err := td.store.HasCourseEnrollment(td.ctx, "S1", "CS101", "")
		require.NoError(t, err)
		assert.True(t, has)

		has, err = td.store.HasCourseEnrollment(td.ctx, "S1", "CS101", "O1")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("delete missing pair removes nothing", func(t *testing.T) {
		n, err := td.store.DeleteEnrollmentFor(td.ctx, "S2", "O1")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("count and list", func(t *testing.T) {
		n, err := td.store.CountEnrollments(td.ctx, "O1")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		list, err := td.store.ListEnrollmentsByStudent(td.ctx, "S1")
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestOfferingUniqueKey(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	t.Run("second section for the same faculty", func(t *testing.T) {
		err := td.store.CreateOffering(td.ctx, &models.Offering{ID: "O3", CourseID: "CS101", FacultyID: "F1", Capacity: 5})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyAssigned)
	})

	t.Run("reassign onto a faculty already teaching the course", func(t *testing.T) {
		err := td.store.UpdateOfferingFaculty(td.ctx, "O1", "F2")
		assert.ErrorIs(t, err, apperrors.ErrAlreadyAssigned)
	})

	t.Run("primary key clash is not a faculty conflict", func(t *testing.T) {
		require.NoError(t, td.store.CreateCourse(td.ctx, &models.Course{ID: "MA200", Name: "Calculus", Credits: 4}))
		err := td.store.CreateOffering(td.ctx, &models.Offering{ID: "O1", CourseID: "MA200", FacultyID: "F1", Capacity: 5})
		require.Error(t, err)
		assert.NotErrorIs(t, err, apperrors.ErrAlreadyAssigned)
	})

	t.Run("conflict survives a transaction", func(t *testing.T) {
		err := td.store.InTx(td.ctx, func(q store.Queries) error {
			return q.CreateOffering(td.ctx, &models.Offering{ID: "O4", CourseID: "CS101", FacultyID: "F2", Capacity: 1})
		})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyAssigned)
		assert.NotErrorIs(t, err, apperrors.ErrStorageFailure)
	})
}

func TestLockStudent(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	err := td.store.InTx(td.ctx, func(q store.Queries) error {
		s, err := q.LockStudent(td.ctx, "S1")
		if err != nil {
			return err
		}
		require.NotNil(t, s)
		assert.Equal(t, "Ann", s.Name)

		missing, err := q.LockStudent(td.ctx, "NOPE")
		if err != nil {
			return err
		}
		assert.Nil(t, missing)
		return nil
	})
	require.NoError(t, err)
}

func TestOfferingCascadeDelete(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	td.enroll(t, "E1", "S1", "O1")
	td.enroll(t, "E2", "S2", "O1")

	n, err := td.store.DeleteOffering(td.ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := td.store.CountEnrollments(td.ctx, "O1")
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestCounterSync(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	td.enroll(t, "E1", "S1", "O1")
	td.enroll(t, "E2", "S2", "O1")

	drift, err := td.store.CounterDrift(td.ctx)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, models.CounterDrift{OfferingID: "O1", Cached: 0, Live: 2}, drift[0])

	count, err := td.store.SyncEnrolledCount(td.ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	drift, err = td.store.CounterDrift(td.ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)

	_, err = td.store.DeleteAllEnrollments(td.ctx)
	require.NoError(t, err)
	_, err = td.store.SyncAllEnrolledCounts(td.ctx)
	require.NoError(t, err)

	o, err := td.store.GetOffering(td.ctx, "O1")
	require.NoError(t, err)
	assert.Zero(t, o.EnrolledCount)
}

func TestReportQueries(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	td.enroll(t, "E1", "S2", "O1")
	td.enroll(t, "E2", "S1", "O1")

	t.Run("roster ordered by student", func(t *testing.T) {
		roster, err := td.store.Roster(td.ctx, "O1")
		require.NoError(t, err)
		require.Len(t, roster, 2)
		assert.Equal(t, "S1", roster[0].StudentID)
		assert.Equal(t, "Ann", roster[0].StudentName)
	})

	t.Run("offering details filtered by faculty", func(t *testing.T) {
		details, err := td.store.OfferingDetails(td.ctx, models.OfferingFilter{FacultyID: "F1"})
		require.NoError(t, err)
		require.Len(t, details, 1)
		assert.Equal(t, "O1", details[0].OfferingID)
		assert.Equal(t, "Intro", details[0].CourseName)
		assert.Equal(t, 2, details[0].LiveCount)
	})

	t.Run("student schedule", func(t *testing.T) {
		schedule, err := td.store.StudentSchedule(td.ctx, "S1")
		require.NoError(t, err)
		require.Len(t, schedule, 1)
		assert.Equal(t, "Dr. Lee", schedule[0].FacultyName)
		assert.Equal(t, 3, schedule[0].Credits)
	})
}

func TestSequence(t *testing.T) {
	td, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	v, err := td.NextSequence(ctx, "seq", 100000)
	require.NoError(t, err)
	assert.Equal(t, int64(100001), v)

	v, err = td.NextSequence(ctx, "seq", 100000)
	require.NoError(t, err)
	assert.Equal(t, int64(100002), v)

	t.Run("set forward", func(t *testing.T) {
		require.NoError(t, td.SetSequence(ctx, "seq", 200000))
		v, err := td.NextSequence(ctx, "seq", 100000)
		require.NoError(t, err)
		assert.Equal(t, int64(200001), v)
	})

	t.Run("set backwards refused", func(t *testing.T) {
		err := td.SetSequence(ctx, "seq", 100)
		assert.ErrorIs(t, err, apperrors.ErrSequenceBackwards)

		cur, err := td.CurrentSequence(ctx, "seq", 100000)
		require.NoError(t, err)
		assert.Equal(t, int64(200001), cur)
	})
}

func TestInTx(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := td.store.InTx(td.ctx, func(q store.Queries) error {
			if err := q.InsertEnrollment(td.ctx, &models.Enrollment{ID: "E9", StudentID: "S1", OfferingID: "O1", EnrolledAt: td.now}); err != nil {
				return err
			}
			return boom
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrStorageFailure)
		assert.ErrorIs(t, err, boom)

		n, err := td.store.CountEnrollments(td.ctx, "O1")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("domain errors pass through", func(t *testing.T) {
		err := td.store.InTx(td.ctx, func(q store.Queries) error {
			return apperrors.New(apperrors.ErrCapacityExceeded, "full")
		})
		assert.ErrorIs(t, err, apperrors.ErrCapacityExceeded)
		assert.NotErrorIs(t, err, apperrors.ErrStorageFailure)
	})

	t.Run("commits", func(t *testing.T) {
		err := td.store.InTx(td.ctx, func(q store.Queries) error {
			locked, err := q.LockOfferings(td.ctx, "O2", "O1")
			if err != nil {
				return err
			}
			require.Len(t, locked, 2)
			assert.Equal(t, "O1", locked[0].ID)
			return q.InsertEnrollment(td.ctx, &models.Enrollment{ID: "E9", StudentID: "S1", OfferingID: "O1", EnrolledAt: td.now})
		})
		require.NoError(t, err)

		n, err := td.store.CountEnrollments(td.ctx, "O1")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestTranslateToSQLite(t *testing.T) {
	out := translateToSQLite("enrolled_at TIMESTAMPTZ NOT NULL DEFAULT now(), value BIGINT")
	assert.Equal(t, "enrolled_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP, value INTEGER", out)
}

func TestWithPragmas(t *testing.T) {
	assert.Equal(t, "a.db?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", withPragmas("a.db"))
	assert.Equal(t, "a.db?_txlock=deferred&_foreign_keys=on&_busy_timeout=5000", withPragmas("a.db?_txlock=deferred"))
}
