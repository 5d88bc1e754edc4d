package registration

import (
	"github.com/go-playground/validator/v10"
)

type ReassignMode string

const (
	// ReassignInPlace swaps the faculty on the existing offering and keeps
	// its enrollments.
	ReassignInPlace ReassignMode = "in_place"
	// ReassignTransfer deletes the offering with its enrollments and opens a
	// fresh one under the new faculty with the same capacity.
	ReassignTransfer ReassignMode = "transfer"
)

type ConflictPolicy string

const (
	// ConflictReject fails with ErrAlreadyAssigned.
	ConflictReject ConflictPolicy = "reject"
	// ConflictRemoveOld deletes the offering being reassigned, since the new
	// faculty already has a section of the course.
	ConflictRemoveOld ConflictPolicy = "remove_old"
)

// Policy holds the rules that differ between deployments.
type Policy struct {
	DuplicateCourseCheck bool           `toml:"duplicate_course_check"`
	ReassignMode         ReassignMode   `toml:"reassign_mode" validate:"oneof=in_place transfer"`
	FacultyConflict      ConflictPolicy `toml:"faculty_conflict" validate:"oneof=reject remove_old"`
}

func DefaultPolicy() Policy {
	return Policy{
		DuplicateCourseCheck: true,
		ReassignMode:         ReassignInPlace,
		FacultyConflict:      ConflictReject,
	}
}

func (p *Policy) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}
