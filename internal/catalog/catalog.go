// Package catalog manages courses and their offerings.
//
// The enrolled count of an offering is read here but never written; only the
// registration engine moves it.
package catalog

import (
	"context"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/coursereg/internal/apperrors"
	"github.com/shrimpsizemoose/coursereg/internal/idgen"
	"github.com/shrimpsizemoose/coursereg/internal/models"
	"github.com/shrimpsizemoose/coursereg/internal/store"
)

type Catalog struct {
	store store.Store
	ids   *idgen.Generator
}

func New(s store.Store, ids *idgen.Generator) *Catalog {
	return &Catalog{store: s, ids: ids}
}

// CreateResult describes what CreateOfferings did.
type CreateResult struct {
	Course        models.Course     `json:"course"`
	CourseCreated bool              `json:"course_created"`
	Offerings     []models.Offering `json:"offerings"`
	// Skipped lists faculty who already teach the course.
	Skipped []string `json:"skipped,omitempty"`
}

// CreateOfferings creates the course unless it exists and attaches one new
// offering per faculty member. Name and credits only apply to a new course.
func (c *Catalog) CreateOfferings(ctx context.Context, course models.Course, facultyIDs []string, capacity int) (*CreateResult, error) {
	course.ID = models.NormalizeID(course.ID)
	if course.Credits == 0 {
		course.Credits = models.DefaultCredits
	}
	if capacity < 0 {
		return nil, apperrors.New(apperrors.ErrValidation, "capacity must be 0 (unlimited) or positive, got %d", capacity)
	}

	var result *CreateResult
	err := c.store.InTx(ctx, func(q store.Queries) error {
		result = &CreateResult{}

		existing, err := q.GetCourse(ctx, course.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := course.Validate(); err != nil {
				return apperrors.New(apperrors.ErrValidation, "invalid course: %v", err)
			}
			if err := q.CreateCourse(ctx, &course); err != nil {
				return err
			}
			existing = &course
			result.CourseCreated = true
		}
		result.Course = *existing

		seen := make(map[string]bool)
		for _, raw := range facultyIDs {
			facultyID := models.NormalizeID(raw)
			if seen[facultyID] {
				continue
			}
			seen[facultyID] = true

			f, err := q.GetFaculty(ctx, facultyID)
			if err != nil {
				return err
			}
			if f == nil {
				return apperrors.New(apperrors.ErrFacultyNotFound, "faculty %s not found", facultyID)
			}

			teaches, err := q.FacultyTeachesCourse(ctx, facultyID, existing.ID, "")
			if err != nil {
				return err
			}
			if teaches {
				result.Skipped = append(result.Skipped, facultyID)
				continue
			}

			id, err := c.ids.Next(ctx, q)
			if err != nil {
				return err
			}
			o := models.Offering{ID: id, CourseID: existing.ID, FacultyID: facultyID, Capacity: capacity}
			if err := q.CreateOffering(ctx, &o); err != nil {
				return err
			}
			result.Offerings = append(result.Offerings, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("Course %s: %d offerings created, %d faculty skipped",
		result.Course.ID, len(result.Offerings), len(result.Skipped))
	return result, nil
}

// UpdateCourse changes name and/or credits. Zero values are left as is.
func (c *Catalog) UpdateCourse(ctx context.Context, id, name string, credits int) (*models.Course, error) {
	var updated *models.Course
	err := c.store.InTx(ctx, func(q store.Queries) error {
		course, err := q.GetCourse(ctx, models.NormalizeID(id))
		if err != nil {
			return err
		}
		if course == nil {
			return apperrors.New(apperrors.ErrCourseNotFound, "course %s not found", id)
		}
		if name != "" {
			course.Name = name
		}
		if credits != 0 {
			course.Credits = credits
		}
		if err := course.Validate(); err != nil {
			return apperrors.New(apperrors.ErrValidation, "invalid course: %v", err)
		}
		updated = course
		return q.UpdateCourse(ctx, course)
	})
	return updated, err
}

// SetCapacity changes an offering's capacity. It may not drop below the
// number of enrolled students unless it is 0, which means unlimited.
func (c *Catalog) SetCapacity(ctx context.Context, offeringID string, capacity int) (*models.Offering, error) {
	if capacity < 0 {
		return nil, apperrors.New(apperrors.ErrValidation, "capacity must be 0 (unlimited) or positive, got %d", capacity)
	}
	offeringID = models.NormalizeID(offeringID)

	var updated *models.Offering
	err := c.store.InTx(ctx, func(q store.Queries) error {
		locked, err := q.LockOfferings(ctx, offeringID)
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return apperrors.New(apperrors.ErrOfferingNotFound, "offering %s not found", offeringID)
		}

		enrolled, err := q.CountEnrollments(ctx, offeringID)
		if err != nil {
			return err
		}
		if capacity != 0 && capacity < enrolled {
			return apperrors.New(apperrors.ErrCapacityBelowEnrollment,
				"offering %s has %d students enrolled, capacity %d is too small", offeringID, enrolled, capacity)
		}
		if err := q.UpdateOfferingCapacity(ctx, offeringID, capacity); err != nil {
			return err
		}

		o := locked[0]
		o.Capacity = capacity
		updated = &o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("Offering %s capacity set to %d", offeringID, capacity)
	return updated, nil
}

func (c *Catalog) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := c.store.GetCourse(ctx, models.NormalizeID(id))
	if err != nil {
		return nil, apperrors.StorageFailure("get course", err)
	}
	if course == nil {
		return nil, apperrors.New(apperrors.ErrCourseNotFound, "course %s not found", id)
	}
	return course, nil
}

func (c *Catalog) ListCourses(ctx context.Context) ([]models.Course, error) {
	list, err := c.store.ListCourses(ctx)
	if err != nil {
		return nil, apperrors.StorageFailure("list courses", err)
	}
	return list, nil
}

func (c *Catalog) GetOffering(ctx context.Context, id string) (*models.Offering, error) {
	o, err := c.store.GetOffering(ctx, models.NormalizeID(id))
	if err != nil {
		return nil, apperrors.StorageFailure("get offering", err)
	}
	if o == nil {
		return nil, apperrors.New(apperrors.ErrOfferingNotFound, "offering %s not found", id)
	}
	return o, nil
}

func (c *Catalog) ListOfferings(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, error) {
	filter.CourseID = models.NormalizeID(filter.CourseID)
	filter.FacultyID = models.NormalizeID(filter.FacultyID)

	list, err := c.store.ListOfferings(ctx, filter)
	if err != nil {
		return nil, apperrors.StorageFailure("list offerings", err)
	}
	return list, nil
}

func (c *Catalog) Capacity(ctx context.Context, offeringID string) (int, error) {
	o, err := c.GetOffering(ctx, offeringID)
	if err != nil {
		return 0, err
	}
	return o.Capacity, nil
}

func (c *Catalog) EnrolledCount(ctx context.Context, offeringID string) (int, error) {
	o, err := c.GetOffering(ctx, offeringID)
	if err != nil {
		return 0, err
	}
	return o.EnrolledCount, nil
}
