package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/coursereg/internal/apperrors"
	"github.com/shrimpsizemoose/coursereg/internal/models"
	"github.com/shrimpsizemoose/coursereg/internal/store/sqlite"
	"github.com/shrimpsizemoose/coursereg/internal/testutil"
)

type testData struct {
	store *sqlite.SQLiteStore
	views *Views
	ctx   context.Context
}

func setupTestData(t *testing.T) *testData {
	s := testutil.NewStore(t)
	fx := testutil.Fixture{T: t, Store: s}
	fx.Student("S1", "Ann")
	fx.Student("S2", "Bob")
	fx.Faculty("F1", "Dr. Lee")
	fx.Faculty("F2", "Dr. Kim")
	fx.Course("CS101", "Intro", 3)
	fx.Course("MA200", "Algebra", 4)
	fx.Offering("O1", "CS101", "F1", 3)
	fx.Offering("O2", "MA200", "F1", 0)
	fx.Offering("O3", "CS101", "F2", 1)

	td := &testData{store: s, views: NewViews(s), ctx: context.Background()}
	td.enroll(t, "E1", "S1", "O1")
	td.enroll(t, "E2", "S2", "O1")
	td.enroll(t, "E3", "S1", "O2")
	return td
}

func (td *testData) enroll(t *testing.T, id, student, offering string) {
	t.Helper()
	err := td.store.InsertEnrollment(td.ctx, &models.Enrollment{
		ID:         id,
		StudentID:  student,
		OfferingID: offering,
		EnrolledAt: time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = td.store.SyncEnrolledCount(td.ctx, offering)
	require.NoError(t, err)
}

func TestRoster(t *testing.T) {
	td := setupTestData(t)

	roster, err := td.views.Roster(td.ctx, "o1")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, models.RosterEntry{EnrollmentID: "E1", StudentID: "S1", StudentName: "Ann"}, roster[0])

	empty, err := td.views.Roster(td.ctx, "O3")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = td.views.Roster(td.ctx, "NOPE")
	assert.ErrorIs(t, err, apperrors.ErrOfferingNotFound)
}

func TestSeats(t *testing.T) {
	td := setupTestData(t)

	s, err := td.views.Seats(td.ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Remaining)
	assert.False(t, s.Unlimited)
	assert.Equal(t, "Dr. Lee", s.FacultyName)

	s, err = td.views.Seats(td.ctx, "O2")
	require.NoError(t, err)
	assert.True(t, s.Unlimited)
	assert.Equal(t, UnlimitedSeats, s.Remaining)
	assert.Equal(t, "unlimited", s.RemainingLabel())

	all, err := td.views.AllSeats(td.ctx, models.OfferingFilter{CourseID: "cs101"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "O1", all[0].OfferingID)
	assert.Equal(t, "1", all[1].RemainingLabel())
}

func TestSeatsIgnoreStaleCounter(t *testing.T) {
	td := setupTestData(t)

	_, err := td.store.DB.Exec(`UPDATE offerings SET enrolled_count = 0 WHERE id = 'O1'`)
	require.NoError(t, err)

	s, err := td.views.Seats(td.ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, 0, s.EnrolledCount)
	assert.Equal(t, 2, s.LiveCount)
	assert.Equal(t, 1, s.Remaining)
}

func TestSchedule(t *testing.T) {
	td := setupTestData(t)

	sched, err := td.views.Schedule(td.ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "Ann", sched.StudentName)
	require.Len(t, sched.Entries, 2)
	assert.Equal(t, "CS101", sched.Entries[0].CourseID)
	assert.Equal(t, 7, sched.TotalCredits)

	_, err = td.views.Schedule(td.ctx, "S9")
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func TestFacultyLoad(t *testing.T) {
	td := setupTestData(t)

	load, err := td.views.FacultyLoad(td.ctx, "F1")
	require.NoError(t, err)
	assert.Len(t, load.Offerings, 2)
	assert.Equal(t, 3, load.Students)

	_, err = td.views.FacultyLoad(td.ctx, "F9")
	assert.ErrorIs(t, err, apperrors.ErrFacultyNotFound)
}

func TestDrift(t *testing.T) {
	td := setupTestData(t)

	drift, err := td.views.Drift(td.ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)

	_, err = td.store.DB.Exec(`UPDATE offerings SET enrolled_count = 5 WHERE id = 'O1'`)
	require.NoError(t, err)

	drift, err = td.views.Drift(td.ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CounterDrift{{OfferingID: "O1", Cached: 5, Live: 2}}, drift)
}
