// Package identity keeps student, faculty and admin accounts and checks
// their credentials.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"
	"golang.org/x/crypto/bcrypt"

	"github.com/shrimpsizemoose/coursereg/internal/apperrors"
	"github.com/shrimpsizemoose/coursereg/internal/models"
	"github.com/shrimpsizemoose/coursereg/internal/store"
)

type Registry struct {
	store store.Store
	cost  int
}

func NewRegistry(s store.Store) *Registry {
	return &Registry{store: s, cost: bcrypt.DefaultCost}
}

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func (r *Registry) WithCost(cost int) *Registry {
	r.cost = cost
	return r
}

func (r *Registry) hash(password string) (string, error) {
	if password == "" {
		return "", apperrors.New(apperrors.ErrValidation, "password must not be empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

func (r *Registry) newPerson(id, name, password string) (models.Person, error) {
	credential, err := r.hash(password)
	if err != nil {
		return models.Person{}, err
	}
	p := models.Person{ID: models.NormalizeID(id), Name: name, Credential: credential}
	if err := p.Validate(); err != nil {
		return models.Person{}, apperrors.New(apperrors.ErrValidation, "invalid account: %v", err)
	}
	return p, nil
}

// claim fails with ErrIDTaken when id belongs to an account of any role.
func claim(ctx context.Context, q store.Queries, id string) error {
	taken, err := q.UserIDTaken(ctx, id)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.New(apperrors.ErrIDTaken, "user id %s already exists", id)
	}
	return nil
}

func (r *Registry) AddStudent(ctx context.Context, id, name, password string) (*models.Student, error) {
	p, err := r.newPerson(id, name, password)
	if err != nil {
		return nil, err
	}
	s := &models.Student{Person: p}

	err = r.store.InTx(ctx, func(q store.Queries) error {
		if err := claim(ctx, q, s.ID); err != nil {
			return err
		}
		return q.CreateStudent(ctx, s)
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("Added student %s", s.ID)
	return s, nil
}

func (r *Registry) AddFaculty(ctx context.Context, id, name, password string) (*models.Faculty, error) {
	p, err := r.newPerson(id, name, password)
	if err != nil {
		return nil, err
	}
	f := &models.Faculty{Person: p}

	err = r.store.InTx(ctx, func(q store.Queries) error {
		if err := claim(ctx, q, f.ID); err != nil {
			return err
		}
		return q.CreateFaculty(ctx, f)
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("Added faculty %s", f.ID)
	return f, nil
}

// UpdateStudent changes the name and/or password. Empty values are left as is.
func (r *Registry) UpdateStudent(ctx context.Context, id, name, password string) (*models.Student, error) {
	var updated *models.Student
	err := r.store.InTx(ctx, func(q store.Queries) error {
		s, err := q.GetStudent(ctx, models.NormalizeID(id))
		if err != nil {
			return err
		}
		if s == nil {
			return apperrors.New(apperrors.ErrStudentNotFound, "student %s not found", id)
		}
		if err := r.apply(&s.Person, name, password); err != nil {
			return err
		}
		updated = s
		return q.UpdateStudent(ctx, s)
	})
	return updated, err
}

func (r *Registry) UpdateFaculty(ctx context.Context, id, name, password string) (*models.Faculty, error) {
	var updated *models.Faculty
	err := r.store.InTx(ctx, func(q store.Queries) error {
		f, err := q.GetFaculty(ctx, models.NormalizeID(id))
		if err != nil {
			return err
		}
		if f == nil {
			return apperrors.New(apperrors.ErrFacultyNotFound, "faculty %s not found", id)
		}
		if err := r.apply(&f.Person, name, password); err != nil {
			return err
		}
		updated = f
		return q.UpdateFaculty(ctx, f)
	})
	return updated, err
}

func (r *Registry) apply(p *models.Person, name, password string) error {
	if name != "" {
		p.Name = name
	}
	if password != "" {
		credential, err := r.hash(password)
		if err != nil {
			return err
		}
		p.Credential = credential
	}
	if err := p.Validate(); err != nil {
		return apperrors.New(apperrors.ErrValidation, "invalid account: %v", err)
	}
	return nil
}

func (r *Registry) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	s, err := r.store.GetStudent(ctx, models.NormalizeID(id))
	if err != nil {
		return nil, apperrors.StorageFailure("get student", err)
	}
	if s == nil {
		return nil, apperrors.New(apperrors.ErrStudentNotFound, "student %s not found", id)
	}
	return s, nil
}

func (r *Registry) GetFaculty(ctx context.Context, id string) (*models.Faculty, error) {
	f, err := r.store.GetFaculty(ctx, models.NormalizeID(id))
	if err != nil {
		return nil, apperrors.StorageFailure("get faculty", err)
	}
	if f == nil {
		return nil, apperrors.New(apperrors.ErrFacultyNotFound, "faculty %s not found", id)
	}
	return f, nil
}

func (r *Registry) ListStudents(ctx context.Context) ([]models.Student, error) {
	list, err := r.store.ListStudents(ctx)
	if err != nil {
		return nil, apperrors.StorageFailure("list students", err)
	}
	return list, nil
}

func (r *Registry) ListFaculty(ctx context.Context) ([]models.Faculty, error) {
	list, err := r.store.ListFaculty(ctx)
	if err != nil {
		return nil, apperrors.StorageFailure("list faculty", err)
	}
	return list, nil
}

func (r *Registry) StudentExists(ctx context.Context, id string) (bool, error) {
	_, err := r.GetStudent(ctx, id)
	return exists(err)
}

func (r *Registry) FacultyExists(ctx context.Context, id string) (bool, error) {
	_, err := r.GetFaculty(ctx, id)
	return exists(err)
}

func exists(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if apperrors.Kind(err) == apperrors.ErrNotFound {
		return false, nil
	}
	return false, err
}

// GetName returns the display name of an account.
func (r *Registry) GetName(ctx context.Context, role models.Role, id string) (string, error) {
	p, err := r.person(ctx, role, id)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}

func (r *Registry) person(ctx context.Context, role models.Role, id string) (*models.Person, error) {
	id = models.NormalizeID(id)
	switch role {
	case models.RoleStudent:
		s, err := r.GetStudent(ctx, id)
		if err != nil {
			return nil, err
		}
		return &s.Person, nil
	case models.RoleFaculty:
		f, err := r.GetFaculty(ctx, id)
		if err != nil {
			return nil, err
		}
		return &f.Person, nil
	case models.RoleAdmin:
		a, err := r.store.GetAdmin(ctx, id)
		if err != nil {
			return nil, apperrors.StorageFailure("get admin", err)
		}
		if a == nil {
			return nil, apperrors.New(apperrors.ErrAccountNotFound, "admin %s not found", id)
		}
		return &a.Person, nil
	}
	return nil, apperrors.New(apperrors.ErrValidation, "unknown role %q", role)
}

// Authenticate reports whether password matches the account. Unknown
// accounts are a plain false, not an error.
func (r *Registry) Authenticate(ctx context.Context, role models.Role, id, password string) (bool, error) {
	p, err := r.person(ctx, role, id)
	if apperrors.Kind(err) == apperrors.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(p.Credential), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		logger.Debug.Printf("Password mismatch for %s %s", role, p.ID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to compare password: %w", err)
	}
	return true, nil
}

// SeedAdmin creates the default admin account unless it already exists.
func (r *Registry) SeedAdmin(ctx context.Context, id, password string) (bool, error) {
	p, err := r.newPerson(id, "Administrator", password)
	if err != nil {
		return false, err
	}

	created := false
	err = r.store.InTx(ctx, func(q store.Queries) error {
		existing, err := q.GetAdmin(ctx, p.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}
		if err := claim(ctx, q, p.ID); err != nil {
			return err
		}
		created = true
		return q.CreateAdmin(ctx, &models.Admin{Person: p})
	})
	if err != nil {
		return false, err
	}

	if created {
		logger.Info.Printf("Seeded default admin account %s", p.ID)
	}
	return created, nil
}
