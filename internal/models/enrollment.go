package models

import "time"

type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	OfferingID string    `db:"offering_id" json:"offering_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// RosterEntry is one line of an offering roster.
type RosterEntry struct {
	EnrollmentID string `db:"enrollment_id" json:"enrollment_id"`
	StudentID    string `db:"student_id" json:"student_id"`
	StudentName  string `db:"student_name" json:"student_name"`
}

// OfferingDetail joins an offering with its course and faculty names and the
// live number of ledger rows.
type OfferingDetail struct {
	OfferingID    string `db:"offering_id" json:"offering_id"`
	CourseID      string `db:"course_id" json:"course_id"`
	CourseName    string `db:"course_name" json:"course_name"`
	Credits       int    `db:"credits" json:"credits"`
	FacultyID     string `db:"faculty_id" json:"faculty_id"`
	FacultyName   string `db:"faculty_name" json:"faculty_name"`
	Capacity      int    `db:"capacity" json:"capacity"`
	EnrolledCount int    `db:"enrolled_count" json:"enrolled_count"`
	LiveCount     int    `db:"live_count" json:"live_count"`
}

// ScheduleEntry is one line of a student's schedule.
type ScheduleEntry struct {
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	OfferingID   string    `db:"offering_id" json:"offering_id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	CourseName   string    `db:"course_name" json:"course_name"`
	Credits      int       `db:"credits" json:"credits"`
	FacultyID    string    `db:"faculty_id" json:"faculty_id"`
	FacultyName  string    `db:"faculty_name" json:"faculty_name"`
	EnrolledAt   time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// CounterDrift describes an offering whose cached count disagrees with the ledger.
type CounterDrift struct {
	OfferingID string `db:"offering_id" json:"offering_id"`
	Cached     int    `db:"cached" json:"cached"`
	Live       int    `db:"live" json:"live"`
}
