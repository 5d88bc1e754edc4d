package store

import (
	"context"
	"io/fs"

	"github.com/shrimpsizemoose/coursereg/internal/models"
)

// IdentityQueries reads and writes students, faculty and admin accounts.
type IdentityQueries interface {
	CreateStudent(ctx context.Context, s *models.Student) error
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	// LockStudent is GetStudent that, inside a transaction on Postgres,
	// keeps the row locked until commit.
	LockStudent(ctx context.Context, id string) (*models.Student, error)
	UpdateStudent(ctx context.Context, s *models.Student) error
	ListStudents(ctx context.Context) ([]models.Student, error)

	CreateFaculty(ctx context.Context, f *models.Faculty) error
	GetFaculty(ctx context.Context, id string) (*models.Faculty, error)
	UpdateFaculty(ctx context.Context, f *models.Faculty) error
	ListFaculty(ctx context.Context) ([]models.Faculty, error)

	CreateAdmin(ctx context.Context, a *models.Admin) error
	GetAdmin(ctx context.Context, id string) (*models.Admin, error)

	// UserIDTaken reports whether id is used by any account of any role.
	UserIDTaken(ctx context.Context, id string) (bool, error)
}

// CatalogQueries reads and writes courses and offerings.
//
// SyncEnrolledCount and SyncAllEnrolledCounts are the only writers of
// offerings.enrolled_count. They are reserved for the registration engine.
type CatalogQueries interface {
	CreateCourse(ctx context.Context, c *models.Course) error
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	UpdateCourse(ctx context.Context, c *models.Course) error
	ListCourses(ctx context.Context) ([]models.Course, error)

	CreateOffering(ctx context.Context, o *models.Offering) error
	GetOffering(ctx context.Context, id string) (*models.Offering, error)
	// LockOfferings loads the given offerings ordered by id. Inside a
	// transaction on Postgres the rows stay locked until commit.
	LockOfferings(ctx context.Context, ids ...string) ([]models.Offering, error)
	ListOfferings(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, error)
	UpdateOfferingFaculty(ctx context.Context, id, facultyID string) error
	UpdateOfferingCapacity(ctx context.Context, id string, capacity int) error
	DeleteOffering(ctx context.Context, id string) (int64, error)
	FacultyTeachesCourse(ctx context.Context, facultyID, courseID, excludeOffering string) (bool, error)

	SyncEnrolledCount(ctx context.Context, offeringID string) (int, error)
	SyncAllEnrolledCounts(ctx context.Context) (int64, error)
}

// LedgerQueries is the enrollment fact store. It enforces nothing beyond the
// (student, offering) unique key.
type LedgerQueries interface {
	InsertEnrollment(ctx context.Context, e *models.Enrollment) error
	DeleteEnrollment(ctx context.Context, id string) (int64, error)
	DeleteEnrollmentFor(ctx context.Context, studentID, offeringID string) (int64, error)
	GetEnrollmentFor(ctx context.Context, studentID, offeringID string) (*models.Enrollment, error)
	HasCourseEnrollment(ctx context.Context, studentID, courseID, excludeOffering string) (bool, error)
	ListEnrollmentsByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	ListEnrollmentsByOffering(ctx context.Context, offeringID string) ([]models.Enrollment, error)
	CountEnrollments(ctx context.Context, offeringID string) (int, error)
	DeleteAllEnrollments(ctx context.Context) (int64, error)
}

// ReportQueries are read-only joins across the three stores.
type ReportQueries interface {
	Roster(ctx context.Context, offeringID string) ([]models.RosterEntry, error)
	OfferingDetails(ctx context.Context, filter models.OfferingFilter) ([]models.OfferingDetail, error)
	StudentSchedule(ctx context.Context, studentID string) ([]models.ScheduleEntry, error)
	CounterDrift(ctx context.Context) ([]models.CounterDrift, error)
}

// SequenceQueries back the persisted id counter.
type SequenceQueries interface {
	NextSequence(ctx context.Context, name string, start int64) (int64, error)
	CurrentSequence(ctx context.Context, name string, start int64) (int64, error)
	SetSequence(ctx context.Context, name string, value int64) error
}

// Queries is everything that can run either standalone or inside a transaction.
type Queries interface {
	IdentityQueries
	CatalogQueries
	LedgerQueries
	ReportQueries
	SequenceQueries
}

type Store interface {
	Queries

	// InTx runs fn inside one transaction. On lock contention the whole
	// transaction is rolled back and fn is called again from scratch, with
	// exponential backoff and a bounded number of attempts.
	InTx(ctx context.Context, fn func(q Queries) error) error

	ApplyMigrations(migrations fs.FS) error
	Close() error
}
