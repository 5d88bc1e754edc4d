package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shrimpsizemoose/coursereg/internal/apperrors"
	"github.com/shrimpsizemoose/coursereg/internal/models"
	"github.com/shrimpsizemoose/coursereg/internal/testutil"
)

func newRegistry(t *testing.T) *Registry {
	return NewRegistry(testutil.NewStore(t)).WithCost(bcrypt.MinCost)
}

func TestAddAccounts(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	s, err := r.AddStudent(ctx, "  s100 ", "Ann", "pw")
	require.NoError(t, err)
	assert.Equal(t, "S100", s.ID)
	assert.NotEqual(t, "pw", s.Credential, "credential must be hashed")

	_, err = r.AddFaculty(ctx, "F1", "Dr. Lee", "pw")
	require.NoError(t, err)

	t.Run("ids are unique across roles", func(t *testing.T) {
		_, err := r.AddFaculty(ctx, "s100", "Someone", "pw")
		assert.ErrorIs(t, err, apperrors.ErrIDTaken)

		_, err = r.AddStudent(ctx, "F1", "Someone", "pw")
		assert.ErrorIs(t, err, apperrors.ErrIDTaken)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := r.AddStudent(ctx, "S2", "", "pw")
		assert.ErrorIs(t, err, apperrors.ErrValidation)

		_, err = r.AddStudent(ctx, "S2", "Bob", "")
		assert.ErrorIs(t, err, apperrors.ErrValidation)

		_, err = r.AddStudent(ctx, "   ", "Bob", "pw")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestLookups(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	_, err := r.AddStudent(ctx, "S1", "Ann", "pw")
	require.NoError(t, err)
	_, err = r.AddFaculty(ctx, "F1", "Dr. Lee", "pw")
	require.NoError(t, err)

	ok, err := r.StudentExists(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.StudentExists(ctx, "F1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.FacultyExists(ctx, "F1")
	require.NoError(t, err)
	assert.True(t, ok)

	name, err := r.GetName(ctx, models.RoleFaculty, "f1")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Lee", name)

	_, err = r.GetName(ctx, models.RoleStudent, "NOPE")
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)

	_, err = r.GetName(ctx, models.Role("janitor"), "S1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	students, err := r.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestUpdate(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	_, err := r.AddStudent(ctx, "S1", "Ann", "old")
	require.NoError(t, err)

	t.Run("name only keeps password", func(t *testing.T) {
		s, err := r.UpdateStudent(ctx, "S1", "Annie", "")
		require.NoError(t, err)
		assert.Equal(t, "Annie", s.Name)

		ok, err := r.Authenticate(ctx, models.RoleStudent, "S1", "old")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("password only", func(t *testing.T) {
		_, err := r.UpdateStudent(ctx, "S1", "", "new")
		require.NoError(t, err)

		ok, err := r.Authenticate(ctx, models.RoleStudent, "S1", "old")
		require.NoError(t, err)
		assert.False(t, ok)

		name, err := r.GetName(ctx, models.RoleStudent, "S1")
		require.NoError(t, err)
		assert.Equal(t, "Annie", name)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := r.UpdateFaculty(ctx, "F9", "X", "")
		assert.ErrorIs(t, err, apperrors.ErrFacultyNotFound)
	})
}

func TestAuthenticateAndSeed(t *testing.T) {
	r := newRegistry(t)
	ctx := context.Background()

	created, err := r.SeedAdmin(ctx, "admin", "adminpass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = r.SeedAdmin(ctx, "ADMIN", "other")
	require.NoError(t, err)
	assert.False(t, created, "existing admin is left alone")

	ok, err := r.Authenticate(ctx, models.RoleAdmin, "ADMIN", "adminpass")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Authenticate(ctx, models.RoleAdmin, "ADMIN", "other")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Authenticate(ctx, models.RoleStudent, "ADMIN", "adminpass")
	require.NoError(t, err)
	assert.False(t, ok, "roles are not interchangeable")

	_, err = r.AddStudent(ctx, "ADMIN", "Sneaky", "pw")
	assert.ErrorIs(t, err, apperrors.ErrIDTaken)
}
