// Package handlers exposes the registration service over HTTP.
package handlers

import (
	"net/http"

	"github.com/shrimpsizemoose/coursereg/internal/app"
	"github.com/shrimpsizemoose/coursereg/internal/models"
)

type Handler struct {
	service *app.Service
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// Register mounts every API route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/login", h.HandleLogin)
	mux.HandleFunc("POST /api/v1/logout", h.HandleLogout)

	mux.HandleFunc("GET /api/v1/students", h.HandleListStudents)
	mux.HandleFunc("POST /api/v1/students", h.HandleAddStudent)
	mux.HandleFunc("GET /api/v1/students/{id}", h.HandleGetStudent)
	mux.HandleFunc("PATCH /api/v1/students/{id}", h.HandleUpdateStudent)
	mux.HandleFunc("GET /api/v1/students/{id}/schedule", h.HandleSchedule)
	mux.HandleFunc("POST /api/v1/students/{id}/enrollments", h.HandleEnroll)
	mux.HandleFunc("DELETE /api/v1/students/{id}/enrollments/{offering}", h.HandleDrop)
	mux.HandleFunc("POST /api/v1/students/{id}/swap", h.HandleSwap)

	mux.HandleFunc("GET /api/v1/faculty", h.HandleListFaculty)
	mux.HandleFunc("POST /api/v1/faculty", h.HandleAddFaculty)
	mux.HandleFunc("GET /api/v1/faculty/{id}", h.HandleGetFaculty)
	mux.HandleFunc("PATCH /api/v1/faculty/{id}", h.HandleUpdateFaculty)
	mux.HandleFunc("GET /api/v1/faculty/{id}/load", h.HandleFacultyLoad)

	mux.HandleFunc("GET /api/v1/courses", h.HandleListCourses)
	mux.HandleFunc("POST /api/v1/courses", h.HandleCreateOfferings)
	mux.HandleFunc("GET /api/v1/courses/{id}", h.HandleGetCourse)
	mux.HandleFunc("PATCH /api/v1/courses/{id}", h.HandleUpdateCourse)

	mux.HandleFunc("GET /api/v1/offerings", h.HandleSeats)
	mux.HandleFunc("GET /api/v1/offerings/{id}", h.HandleOfferingSeats)
	mux.HandleFunc("GET /api/v1/offerings/{id}/roster", h.HandleRoster)
	mux.HandleFunc("PUT /api/v1/offerings/{id}/capacity", h.HandleSetCapacity)
	mux.HandleFunc("PUT /api/v1/offerings/{id}/faculty", h.HandleReassign)
	mux.HandleFunc("DELETE /api/v1/offerings/{id}", h.HandleDeleteOffering)

	mux.HandleFunc("DELETE /api/v1/enrollments", h.HandleClearAll)
	mux.HandleFunc("GET /api/v1/admin/drift", h.HandleDrift)
	mux.HandleFunc("POST /api/v1/admin/reconcile", h.HandleReconcile)
	mux.HandleFunc("GET /api/v1/admin/sequence", h.HandleGetSequence)
	mux.HandleFunc("PUT /api/v1/admin/sequence", h.HandleSetSequence)
}

func (h *Handler) authorize(r *http.Request, role models.Role, userID string) error {
	_, err := h.service.Auth.Authorize(r.Context(), r.Header.Get, role, userID)
	return err
}

func (h *Handler) requireRole(r *http.Request, roles ...models.Role) (*models.Session, error) {
	return h.service.Auth.RequireRole(r.Context(), r.Header.Get, roles...)
}

func (h *Handler) requireAdmin(r *http.Request) error {
	_, err := h.requireRole(r)
	return err
}

// requireOwner admits admins and the faculty member teaching the offering.
func (h *Handler) requireOwner(r *http.Request, offeringID string) error {
	session, err := h.requireRole(r, models.RoleFaculty)
	if err != nil {
		return err
	}
	if session.Role == models.RoleAdmin {
		return nil
	}
	o, err := h.service.Catalog.GetOffering(r.Context(), offeringID)
	if err != nil {
		return err
	}
	if !session.Can(models.RoleFaculty, o.FacultyID) {
		return app.ErrForbidden
	}
	return nil
}
