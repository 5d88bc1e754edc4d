// Package export writes spreadsheet snapshots of the registration state.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shrimpsizemoose/trekker/logger"
	"github.com/xuri/excelize/v2"

	"github.com/shrimpsizemoose/coursereg/internal/models"
	"github.com/shrimpsizemoose/coursereg/internal/store"
)

const (
	sheetSummary     = "Summary"
	sheetStudents    = "Students"
	sheetFaculty     = "Faculty"
	sheetCourses     = "Courses"
	sheetOfferings   = "Offerings"
	sheetEnrollments = "Enrollments"

	fileTimeFormat = "20060102-150405"
)

var sheets = []string{sheetSummary, sheetStudents, sheetFaculty, sheetCourses, sheetOfferings, sheetEnrollments}

type WorkbookExporter struct {
	dir       string
	store     store.Queries
	scheduler *gocron.Scheduler
	now       func() time.Time
}

func NewWorkbookExporter(dir string, q store.Queries) *WorkbookExporter {
	return &WorkbookExporter{
		dir:       dir,
		store:     q,
		scheduler: gocron.NewScheduler(time.UTC),
		now:       time.Now,
	}
}

// Schedule runs Export on a cron expression until Stop.
func (e *WorkbookExporter) Schedule(expr string) error {
	_, err := e.scheduler.Cron(expr).Do(func() {
		path, err := e.Export(context.Background())
		if err != nil {
			logger.Error.Printf("Export failed: %v", err)
			return
		}
		logger.Info.Printf("Exported %s", path)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule export: %w", err)
	}

	e.scheduler.StartAsync()
	return nil
}

func (e *WorkbookExporter) Stop() {
	e.scheduler.Stop()
}

// Export writes a fresh workbook into the export dir and returns its path.
func (e *WorkbookExporter) Export(ctx context.Context) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	f, err := e.Build(ctx)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(e.dir, fmt.Sprintf("coursereg-%s.xlsx", e.now().UTC().Format(fileTimeFormat)))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}

// Build renders the current state into an in-memory workbook.
func (e *WorkbookExporter) Build(ctx context.Context) (*excelize.File, error) {
	f := excelize.NewFile()

	for i, name := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
			continue
		}
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	w := &sheetWriter{f: f}
	e.writeTables(ctx, w)
	if w.err != nil {
		f.Close()
		return nil, w.err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func (e *WorkbookExporter) writeTables(ctx context.Context, w *sheetWriter) {
	students, err := e.store.ListStudents(ctx)
	if err != nil {
		w.fail(fmt.Errorf("failed to list students: %w", err))
		return
	}
	w.header(sheetStudents, "ID", "Name")
	for _, s := range students {
		w.row(sheetStudents, s.ID, s.Name)
	}

	faculty, err := e.store.ListFaculty(ctx)
	if err != nil {
		w.fail(fmt.Errorf("failed to list faculty: %w", err))
		return
	}
	w.header(sheetFaculty, "ID", "Name")
	for _, f := range faculty {
		w.row(sheetFaculty, f.ID, f.Name)
	}

	courses, err := e.store.ListCourses(ctx)
	if err != nil {
		w.fail(fmt.Errorf("failed to list courses: %w", err))
		return
	}
	w.header(sheetCourses, "ID", "Name", "Credits")
	for _, c := range courses {
		w.row(sheetCourses, c.ID, c.Name, c.Credits)
	}

	details, err := e.store.OfferingDetails(ctx, models.OfferingFilter{})
	if err != nil {
		w.fail(fmt.Errorf("failed to list offerings: %w", err))
		return
	}
	w.header(sheetOfferings, "Offering", "Course", "Course Name", "Credits", "Faculty", "Faculty Name", "Capacity", "Enrolled", "Remaining")
	w.header(sheetEnrollments, "Enrollment", "Offering", "Course", "Student", "Student Name")
	enrollments := 0
	for _, d := range details {
		var remaining interface{} = "unlimited"
		if d.Capacity > 0 {
			remaining = max(d.Capacity-d.LiveCount, 0)
		}
		w.row(sheetOfferings, d.OfferingID, d.CourseID, d.CourseName, d.Credits, d.FacultyID, d.FacultyName, d.Capacity, d.LiveCount, remaining)

		roster, err := e.store.Roster(ctx, d.OfferingID)
		if err != nil {
			w.fail(fmt.Errorf("failed to read roster of %s: %w", d.OfferingID, err))
			return
		}
		for _, r := range roster {
			w.row(sheetEnrollments, r.EnrollmentID, d.OfferingID, d.CourseID, r.StudentID, r.StudentName)
			enrollments++
		}
	}

	w.row(sheetSummary, "Updated", e.now().UTC().Format(time.RFC3339))
	w.row(sheetSummary, "Students", len(students))
	w.row(sheetSummary, "Faculty", len(faculty))
	w.row(sheetSummary, "Courses", len(courses))
	w.row(sheetSummary, "Offerings", len(details))
	w.row(sheetSummary, "Enrollments", enrollments)
}
