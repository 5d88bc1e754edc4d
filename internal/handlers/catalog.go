package handlers

import (
	"net/http"

	"github.com/shrimpsizemoose/coursereg/internal/models"
)

type createOfferingsRequest struct {
	Course     models.Course `json:"course"`
	FacultyIDs []string      `json:"faculty_ids"`
	Capacity   int           `json:"capacity"`
}

type updateCourseRequest struct {
	Name    string `json:"name"`
	Credits int    `json:"credits"`
}

type capacityRequest struct {
	Capacity int `json:"capacity"`
}

type reassignRequest struct {
	FacultyID string `json:"faculty_id"`
}

func (h *Handler) HandleListCourses(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireRole(r, models.RoleFaculty, models.RoleStudent); err != nil {
		writeError(w, r, err)
		return
	}
	courses, err := h.service.Catalog.ListCourses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *Handler) HandleGetCourse(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireRole(r, models.RoleFaculty, models.RoleStudent); err != nil {
		writeError(w, r, err)
		return
	}
	course, err := h.service.Catalog.GetCourse(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

// HandleCreateOfferings creates a course, or attaches offerings to an
// existing one, with one offering per faculty member.
func (h *Handler) HandleCreateOfferings(w http.ResponseWriter, r *http.Request) {
	var req createOfferingsRequest
	if err := h.requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.service.Catalog.CreateOfferings(r.Context(), req.Course, req.FacultyIDs, req.Capacity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) HandleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	var req updateCourseRequest
	if err := h.requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	course, err := h.service.Catalog.UpdateCourse(r.Context(), r.PathValue("id"), req.Name, req.Credits)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (h *Handler) HandleSetCapacity(w http.ResponseWriter, r *http.Request) {
	var req capacityRequest
	if err := h.requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	offering, err := h.service.Catalog.SetCapacity(r.Context(), r.PathValue("id"), req.Capacity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, offering)
}

// HandleReassign hands the offering to another faculty member. The faculty
// member currently teaching it may give it away.
func (h *Handler) HandleReassign(w http.ResponseWriter, r *http.Request) {
	var req reassignRequest
	if err := h.requireOwner(r, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.service.Engine.ReassignFaculty(r.Context(), r.PathValue("id"), req.FacultyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleDeleteOffering is open to admins and the offering's own faculty.
func (h *Handler) HandleDeleteOffering(w http.ResponseWriter, r *http.Request) {
	if err := h.requireOwner(r, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	report, err := h.service.Engine.DeleteOffering(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
