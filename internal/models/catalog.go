package models

import (
	"github.com/go-playground/validator/v10"
)

const (
	MinCredits     = 1
	MaxCredits     = 6
	DefaultCredits = 3
)

type Course struct {
	ID      string `db:"id" json:"id" validate:"required,max=16"`
	Name    string `db:"name" json:"name" validate:"required,max=128"`
	Credits int    `db:"credits" json:"credits" validate:"min=1,max=6"`
}

// Offering is one section of a course. Capacity 0 means unlimited.
// EnrolledCount is a cache of the ledger, rewritten by every registration
// transaction that touches the offering.
type Offering struct {
	ID            string `db:"id" json:"id"`
	CourseID      string `db:"course_id" json:"course_id" validate:"required"`
	FacultyID     string `db:"faculty_id" json:"faculty_id" validate:"required"`
	Capacity      int    `db:"capacity" json:"capacity" validate:"min=0"`
	EnrolledCount int    `db:"enrolled_count" json:"enrolled_count" validate:"min=0"`
}

func (c *Course) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

func (o *Offering) Validate() error {
	validate := validator.New()
	return validate.Struct(o)
}

func (o *Offering) Unlimited() bool {
	return o.Capacity == 0
}

// HasRoomFor reports whether one more seat fits given the live enrollment count.
func (o *Offering) HasRoomFor(enrolled int) bool {
	return o.Unlimited() || enrolled < o.Capacity
}

// OfferingFilter narrows offering listings. Empty fields match everything.
type OfferingFilter struct {
	CourseID  string
	FacultyID string
}
