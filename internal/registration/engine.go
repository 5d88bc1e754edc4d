// Package registration applies enroll, drop, swap, faculty reassignment and
// offering deletion as single transactions that keep every offering's
// enrolled count equal to its number of ledger rows.
package registration

import (
	"context"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/coursereg/internal/apperrors"
	"github.com/shrimpsizemoose/coursereg/internal/idgen"
	"github.com/shrimpsizemoose/coursereg/internal/metrics"
	"github.com/shrimpsizemoose/coursereg/internal/models"
	"github.com/shrimpsizemoose/coursereg/internal/store"
)

type Engine struct {
	store  store.Store
	ids    *idgen.Generator
	policy Policy
	locks  *lockSet
	now    func() time.Time
}

func NewEngine(s store.Store, ids *idgen.Generator, policy Policy) *Engine {
	return &Engine{
		store:  s,
		ids:    ids,
		policy: policy,
		locks:  newLockSet(),
		now:    time.Now,
	}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// ReassignResult describes the offering after ReassignFaculty.
type ReassignResult struct {
	OfferingID         string         `json:"offering_id"`
	CourseID           string         `json:"course_id"`
	PreviousFacultyID  string         `json:"previous_faculty_id"`
	FacultyID          string         `json:"faculty_id"`
	Mode               ReassignMode   `json:"mode"`
	Conflict           ConflictPolicy `json:"conflict,omitempty"`
	Deleted            bool           `json:"deleted"`
	EnrollmentsRemoved int            `json:"enrollments_removed"`
}

// CascadeReport is the outcome of DeleteOffering.
type CascadeReport struct {
	OfferingID         string `json:"offering_id"`
	CourseID           string `json:"course_id"`
	FacultyID          string `json:"faculty_id"`
	EnrollmentsRemoved int    `json:"enrollments_removed"`
}

type ClearReport struct {
	EnrollmentsRemoved int64 `json:"enrollments_removed"`
	OfferingsReset     int64 `json:"offerings_reset"`
}

// observe records the outcome of op. It is deferred with a pointer to the
// named error result.
func (e *Engine) observe(op string, start time.Time, errp *error) {
	err := *errp
	metrics.RegistrationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.RegistrationOps.WithLabelValues(op, apperrors.Code(err)).Inc()

	switch {
	case err == nil:
	case apperrors.IsExpected(err):
		logger.Debug.Printf("%s rejected: %v", op, err)
	default:
		logger.Error.Printf("%s failed: %v", op, err)
	}
}

// requireStudent locks the student row so that enrollment writes for one
// student are serialized across processes, not only within this engine.
func requireStudent(ctx context.Context, q store.Queries, id string) error {
	s, err := q.LockStudent(ctx, id)
	if err != nil {
		return err
	}
	if s == nil {
		return apperrors.New(apperrors.ErrStudentNotFound, "student %s not found", id)
	}
	return nil
}

// lockOfferings locks ids inside the transaction and returns them by id.
// A missing offering fails with ErrOfferingNotFound.
func lockOfferings(ctx context.Context, q store.Queries, ids ...string) (map[string]models.Offering, error) {
	locked, err := q.LockOfferings(ctx, ids...)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Offering, len(locked))
	for _, o := range locked {
		byID[o.ID] = o
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, apperrors.New(apperrors.ErrOfferingNotFound, "offering %s not found", id)
		}
	}
	return byID, nil
}

// admit checks whether the student may take a seat in o. excludeOffering is
// left out of the duplicate course check.
func (e *Engine) admit(ctx context.Context, q store.Queries, studentID string, o models.Offering, excludeOffering string) error {
	existing, err := q.GetEnrollmentFor(ctx, studentID, o.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.New(apperrors.ErrAlreadyEnrolled, "student %s is already enrolled in %s", studentID, o.ID)
	}

	if e.policy.DuplicateCourseCheck {
		dup, err := q.HasCourseEnrollment(ctx, studentID, o.CourseID, excludeOffering)
		if err != nil {
			return err
		}
		if dup {
			return apperrors.New(apperrors.ErrDuplicateCourseEnrollment,
				"student %s already holds a section of %s", studentID, o.CourseID).
				WithDetails(map[string]interface{}{"course_id": o.CourseID})
		}
	}

	enrolled, err := q.CountEnrollments(ctx, o.ID)
	if err != nil {
		return err
	}
	if !o.HasRoomFor(enrolled) {
		return apperrors.New(apperrors.ErrCapacityExceeded,
			"offering %s is full (%d/%d)", o.ID, enrolled, o.Capacity).
			WithDetails(map[string]interface{}{"offering_id": o.ID, "enrolled": enrolled, "capacity": o.Capacity})
	}
	return nil
}

func (e *Engine) insert(ctx context.Context, q store.Queries, studentID, offeringID string) (string, error) {
	id, err := e.ids.Next(ctx, q)
	if err != nil {
		return "", err
	}
	err = q.InsertEnrollment(ctx, &models.Enrollment{
		ID:         id,
		StudentID:  studentID,
		OfferingID: offeringID,
		EnrolledAt: e.now().UTC(),
	})
	if err != nil {
		return "", err
	}
	if _, err := q.SyncEnrolledCount(ctx, offeringID); err != nil {
		return "", err
	}
	return id, nil
}

func (e *Engine) remove(ctx context.Context, q store.Queries, studentID, offeringID string) error {
	n, err := q.DeleteEnrollmentFor(ctx, studentID, offeringID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.New(apperrors.ErrNotEnrolled, "student %s is not enrolled in %s", studentID, offeringID)
	}
	_, err = q.SyncEnrolledCount(ctx, offeringID)
	return err
}

// Enroll gives the student a seat in the offering and returns the enrollment id.
func (e *Engine) Enroll(ctx context.Context, studentID, offeringID string) (enrollmentID string, err error) {
	defer e.observe("enroll", time.Now(), &err)

	studentID = models.NormalizeID(studentID)
	offeringID = models.NormalizeID(offeringID)

	release := e.locks.acquire(studentKey(studentID), offeringKey(offeringID))
	defer release()

	err = e.store.InTx(ctx, func(q store.Queries) error {
		enrollmentID = ""
		if err := requireStudent(ctx, q, studentID); err != nil {
			return err
		}
		offerings, err := lockOfferings(ctx, q, offeringID)
		if err != nil {
			return err
		}
		if err := e.admit(ctx, q, studentID, offerings[offeringID], ""); err != nil {
			return err
		}
		enrollmentID, err = e.insert(ctx, q, studentID, offeringID)
		return err
	})
	if err != nil {
		return "", err
	}

	logger.Info.Printf("Enrolled %s in %s as %s", studentID, offeringID, enrollmentID)
	return enrollmentID, nil
}

// Drop removes the student's seat in the offering.
func (e *Engine) Drop(ctx context.Context, studentID, offeringID string) (err error) {
	defer e.observe("drop", time.Now(), &err)

	studentID = models.NormalizeID(studentID)
	offeringID = models.NormalizeID(offeringID)

	release := e.locks.acquire(studentKey(studentID), offeringKey(offeringID))
	defer release()

	err = e.store.InTx(ctx, func(q store.Queries) error {
		if err := requireStudent(ctx, q, studentID); err != nil {
			return err
		}
		if _, err := lockOfferings(ctx, q, offeringID); err != nil {
			return err
		}
		return e.remove(ctx, q, studentID, offeringID)
	})
	if err != nil {
		return err
	}

	logger.Info.Printf("Dropped %s from %s", studentID, offeringID)
	return nil
}

// Swap moves the student from oldOffering to newOffering in one transaction.
// The new offering must have a free seat of its own; the seat given up in the
// old offering is never counted towards it.
func (e *Engine) Swap(ctx context.Context, studentID, oldOffering, newOffering string) (enrollmentID string, err error) {
	defer e.observe("swap", time.Now(), &err)

	studentID = models.NormalizeID(studentID)
	oldOffering = models.NormalizeID(oldOffering)
	newOffering = models.NormalizeID(newOffering)

	if oldOffering == newOffering {
		return "", apperrors.New(apperrors.ErrSameOffering, "can not swap %s for itself", oldOffering)
	}

	release := e.locks.acquire(studentKey(studentID), offeringKey(oldOffering), offeringKey(newOffering))
	defer release()

	err = e.store.InTx(ctx, func(q store.Queries) error {
		enrollmentID = ""
		if err := requireStudent(ctx, q, studentID); err != nil {
			return err
		}
		offerings, err := lockOfferings(ctx, q, oldOffering, newOffering)
		if err != nil {
			return err
		}

		current, err := q.GetEnrollmentFor(ctx, studentID, oldOffering)
		if err != nil {
			return err
		}
		if current == nil {
			return apperrors.New(apperrors.ErrNotEnrolled, "student %s is not enrolled in %s", studentID, oldOffering)
		}

		// Validated against the state before the drop.
		if err := e.admit(ctx, q, studentID, offerings[newOffering], oldOffering); err != nil {
			return err
		}

		if err := e.remove(ctx, q, studentID, oldOffering); err != nil {
			return err
		}
		enrollmentID, err = e.insert(ctx, q, studentID, newOffering)
		return err
	})
	if err != nil {
		return "", err
	}

	logger.Info.Printf("Swapped %s from %s to %s as %s", studentID, oldOffering, newOffering, enrollmentID)
	return enrollmentID, nil
}

// ReassignFaculty hands the offering to another faculty member according to
// the engine's ReassignMode and FacultyConflict policy.
func (e *Engine) ReassignFaculty(ctx context.Context, offeringID, facultyID string) (result *ReassignResult, err error) {
	defer e.observe("reassign", time.Now(), &err)

	offeringID = models.NormalizeID(offeringID)
	facultyID = models.NormalizeID(facultyID)

	// The course is needed for the lock key; it is re-read under the lock.
	o, err := e.store.GetOffering(ctx, offeringID)
	if err != nil {
		return nil, apperrors.StorageFailure("get offering", err)
	}
	if o == nil {
		return nil, apperrors.New(apperrors.ErrOfferingNotFound, "offering %s not found", offeringID)
	}

	release := e.locks.acquire(offeringKey(offeringID), courseKey(o.CourseID))
	defer release()

	err = e.store.InTx(ctx, func(q store.Queries) error {
		offerings, err := lockOfferings(ctx, q, offeringID)
		if err != nil {
			return err
		}
		o := offerings[offeringID]
		result = &ReassignResult{
			OfferingID:        o.ID,
			CourseID:          o.CourseID,
			PreviousFacultyID: o.FacultyID,
			FacultyID:         facultyID,
			Mode:              e.policy.ReassignMode,
		}

		f, err := q.GetFaculty(ctx, facultyID)
		if err != nil {
			return err
		}
		if f == nil {
			return apperrors.New(apperrors.ErrFacultyNotFound, "faculty %s not found", facultyID)
		}
		if o.FacultyID == facultyID {
			return nil
		}

		teaches, err := q.FacultyTeachesCourse(ctx, facultyID, o.CourseID, o.ID)
		if err != nil {
			return err
		}
		if teaches {
			result.Conflict = e.policy.FacultyConflict
			if e.policy.FacultyConflict != ConflictRemoveOld {
				return apperrors.New(apperrors.ErrAlreadyAssigned,
					"faculty %s already teaches another section of %s", facultyID, o.CourseID)
			}
			removed, err := deleteOffering(ctx, q, o.ID)
			if err != nil {
				return err
			}
			result.Deleted = true
			result.EnrollmentsRemoved = removed
			return nil
		}

		if e.policy.ReassignMode == ReassignTransfer {
			removed, err := deleteOffering(ctx, q, o.ID)
			if err != nil {
				return err
			}
			id, err := e.ids.Next(ctx, q)
			if err != nil {
				return err
			}
			fresh := models.Offering{ID: id, CourseID: o.CourseID, FacultyID: facultyID, Capacity: o.Capacity}
			if err := q.CreateOffering(ctx, &fresh); err != nil {
				return err
			}
			result.OfferingID = id
			result.Deleted = true
			result.EnrollmentsRemoved = removed
			return nil
		}

		return q.UpdateOfferingFaculty(ctx, o.ID, facultyID)
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("Offering %s reassigned from %s to %s (%s, now %s, %d enrollments removed)",
		offeringID, result.PreviousFacultyID, facultyID, result.Mode, result.OfferingID, result.EnrollmentsRemoved)
	return result, nil
}

// deleteOffering removes the offering and verifies that the cascade took
// every enrollment with it. It returns the number of enrollments removed.
func deleteOffering(ctx context.Context, q store.Queries, offeringID string) (int, error) {
	before, err := q.CountEnrollments(ctx, offeringID)
	if err != nil {
		return 0, err
	}
	n, err := q.DeleteOffering(ctx, offeringID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, apperrors.New(apperrors.ErrOfferingNotFound, "offering %s not found", offeringID)
	}
	after, err := q.CountEnrollments(ctx, offeringID)
	if err != nil {
		return 0, err
	}
	if after != 0 {
		return 0, apperrors.New(apperrors.ErrCascadeIncomplete,
			"offering %s deleted but %d enrollments remain", offeringID, after)
	}
	return before, nil
}

// DeleteOffering removes the offering with all its enrollments.
func (e *Engine) DeleteOffering(ctx context.Context, offeringID string) (report *CascadeReport, err error) {
	defer e.observe("delete_offering", time.Now(), &err)

	offeringID = models.NormalizeID(offeringID)

	release := e.locks.acquire(offeringKey(offeringID))
	defer release()

	err = e.store.InTx(ctx, func(q store.Queries) error {
		offerings, err := lockOfferings(ctx, q, offeringID)
		if err != nil {
			return err
		}
		o := offerings[offeringID]

		removed, err := deleteOffering(ctx, q, offeringID)
		if err != nil {
			return err
		}
		report = &CascadeReport{
			OfferingID:         o.ID,
			CourseID:           o.CourseID,
			FacultyID:          o.FacultyID,
			EnrollmentsRemoved: removed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("Deleted offering %s, %d enrollments cascaded", offeringID, report.EnrollmentsRemoved)
	return report, nil
}

// ClearAllEnrollments empties the ledger and zeroes every counter.
func (e *Engine) ClearAllEnrollments(ctx context.Context) (report *ClearReport, err error) {
	defer e.observe("clear_all", time.Now(), &err)

	release := e.locks.exclusive()
	defer release()

	err = e.store.InTx(ctx, func(q store.Queries) error {
		removed, err := q.DeleteAllEnrollments(ctx)
		if err != nil {
			return err
		}
		reset, err := q.SyncAllEnrolledCounts(ctx)
		if err != nil {
			return err
		}
		report = &ClearReport{EnrollmentsRemoved: removed, OfferingsReset: reset}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("Cleared %d enrollments, %d offerings reset", report.EnrollmentsRemoved, report.OfferingsReset)
	return report, nil
}

// Reconcile rewrites every cached counter from the ledger and returns the
// offerings that had drifted.
func (e *Engine) Reconcile(ctx context.Context) (drift []models.CounterDrift, err error) {
	defer e.observe("reconcile", time.Now(), &err)

	release := e.locks.exclusive()
	defer release()

	err = e.store.InTx(ctx, func(q store.Queries) error {
		drift, err = q.CounterDrift(ctx)
		if err != nil {
			return err
		}
		_, err = q.SyncAllEnrolledCounts(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.CounterDrift.Set(0)
	for _, d := range drift {
		logger.Info.Printf("Repaired counter of %s: cached %d, ledger %d", d.OfferingID, d.Cached, d.Live)
	}
	return drift, nil
}
