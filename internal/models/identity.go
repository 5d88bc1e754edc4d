package models

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// Person is the shape shared by students, faculty and admin accounts.
// Credential holds a bcrypt hash and never leaves the service layer.
type Person struct {
	ID         string `db:"id" json:"id" validate:"required,max=32"`
	Name       string `db:"name" json:"name" validate:"required,max=128"`
	Credential string `db:"credential" json:"-" validate:"required"`
}

type Student struct {
	Person
}

type Faculty struct {
	Person
}

type Admin struct {
	Person
}

func (p *Person) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// NormalizeID trims and upper-cases a user, course or offering id.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
