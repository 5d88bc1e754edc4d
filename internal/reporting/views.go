// Package reporting renders read-only views over the ledger and catalog.
// Views are built from current state on every call and must never feed
// capacity decisions.
package reporting

import (
	"context"
	"strconv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/coursereg/internal/apperrors"
	"github.com/shrimpsizemoose/coursereg/internal/metrics"
	"github.com/shrimpsizemoose/coursereg/internal/models"
	"github.com/shrimpsizemoose/coursereg/internal/store"
)

// UnlimitedSeats is the Remaining value of an offering without a cap.
const UnlimitedSeats = -1

type Views struct {
	store store.Queries
}

func NewViews(q store.Queries) *Views {
	return &Views{store: q}
}

type Seats struct {
	models.OfferingDetail
	Remaining int  `json:"remaining"`
	Unlimited bool `json:"unlimited"`
}

func (s Seats) RemainingLabel() string {
	if s.Unlimited {
		return "unlimited"
	}
	return strconv.Itoa(s.Remaining)
}

type Schedule struct {
	StudentID    string                 `json:"student_id"`
	StudentName  string                 `json:"student_name"`
	Entries      []models.ScheduleEntry `json:"entries"`
	TotalCredits int                    `json:"total_credits"`
}

type FacultyLoad struct {
	FacultyID   string  `json:"faculty_id"`
	FacultyName string  `json:"faculty_name"`
	Offerings   []Seats `json:"offerings"`
	Students    int     `json:"students"`
}

func seatsOf(d models.OfferingDetail) Seats {
	s := Seats{OfferingDetail: d}
	if d.Capacity == 0 {
		s.Unlimited = true
		s.Remaining = UnlimitedSeats
		return s
	}
	s.Remaining = d.Capacity - d.LiveCount
	if s.Remaining < 0 {
		s.Remaining = 0
	}
	return s
}

func (v *Views) offering(ctx context.Context, id string) (*models.Offering, error) {
	o, err := v.store.GetOffering(ctx, id)
	if err != nil {
		return nil, apperrors.StorageFailure("get offering", err)
	}
	if o == nil {
		return nil, apperrors.New(apperrors.ErrOfferingNotFound, "offering %s not found", id)
	}
	return o, nil
}

// Roster lists the students enrolled in an offering ordered by id.
func (v *Views) Roster(ctx context.Context, offeringID string) ([]models.RosterEntry, error) {
	offeringID = models.NormalizeID(offeringID)
	if _, err := v.offering(ctx, offeringID); err != nil {
		return nil, err
	}
	roster, err := v.store.Roster(ctx, offeringID)
	if err != nil {
		return nil, apperrors.StorageFailure("roster", err)
	}
	return roster, nil
}

func (v *Views) Seats(ctx context.Context, offeringID string) (*Seats, error) {
	o, err := v.offering(ctx, models.NormalizeID(offeringID))
	if err != nil {
		return nil, err
	}
	details, err := v.store.OfferingDetails(ctx, models.OfferingFilter{CourseID: o.CourseID, FacultyID: o.FacultyID})
	if err != nil {
		return nil, apperrors.StorageFailure("seats", err)
	}
	for _, d := range details {
		if d.OfferingID == o.ID {
			s := seatsOf(d)
			return &s, nil
		}
	}
	return nil, apperrors.New(apperrors.ErrOfferingNotFound, "offering %s not found", o.ID)
}

// AllSeats lists remaining seats of every offering matching filter.
func (v *Views) AllSeats(ctx context.Context, filter models.OfferingFilter) ([]Seats, error) {
	filter.CourseID = models.NormalizeID(filter.CourseID)
	filter.FacultyID = models.NormalizeID(filter.FacultyID)

	details, err := v.store.OfferingDetails(ctx, filter)
	if err != nil {
		return nil, apperrors.StorageFailure("seats", err)
	}
	out := make([]Seats, 0, len(details))
	for _, d := range details {
		out = append(out, seatsOf(d))
	}
	return out, nil
}

func (v *Views) Schedule(ctx context.Context, studentID string) (*Schedule, error) {
	studentID = models.NormalizeID(studentID)
	s, err := v.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, apperrors.StorageFailure("get student", err)
	}
	if s == nil {
		return nil, apperrors.New(apperrors.ErrStudentNotFound, "student %s not found", studentID)
	}

	entries, err := v.store.StudentSchedule(ctx, studentID)
	if err != nil {
		return nil, apperrors.StorageFailure("schedule", err)
	}

	sched := &Schedule{StudentID: s.ID, StudentName: s.Name, Entries: entries}
	for _, e := range entries {
		sched.TotalCredits += e.Credits
	}
	return sched, nil
}

// FacultyLoad lists the offerings a faculty member teaches with their seats.
func (v *Views) FacultyLoad(ctx context.Context, facultyID string) (*FacultyLoad, error) {
	facultyID = models.NormalizeID(facultyID)
	f, err := v.store.GetFaculty(ctx, facultyID)
	if err != nil {
		return nil, apperrors.StorageFailure("get faculty", err)
	}
	if f == nil {
		return nil, apperrors.New(apperrors.ErrFacultyNotFound, "faculty %s not found", facultyID)
	}

	offerings, err := v.AllSeats(ctx, models.OfferingFilter{FacultyID: facultyID})
	if err != nil {
		return nil, err
	}

	load := &FacultyLoad{FacultyID: f.ID, FacultyName: f.Name, Offerings: offerings}
	for _, o := range offerings {
		load.Students += o.LiveCount
	}
	return load, nil
}

// Drift lists offerings whose cached count disagrees with the ledger.
func (v *Views) Drift(ctx context.Context) ([]models.CounterDrift, error) {
	drift, err := v.store.CounterDrift(ctx)
	if err != nil {
		return nil, apperrors.StorageFailure("counter drift", err)
	}
	metrics.CounterDrift.Set(float64(len(drift)))
	if len(drift) > 0 {
		logger.Error.Printf("%d offerings have drifted counters, run reconcile", len(drift))
	}
	return drift, nil
}
