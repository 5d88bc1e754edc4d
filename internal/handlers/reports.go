package handlers

import (
	"net/http"

	"github.com/shrimpsizemoose/coursereg/internal/models"
)

type sequenceBody struct {
	Value int64 `json:"value"`
}

// HandleSeats lists remaining seats, optionally filtered by ?course= and ?faculty=.
func (h *Handler) HandleSeats(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireRole(r, models.RoleFaculty, models.RoleStudent); err != nil {
		writeError(w, r, err)
		return
	}

	filter := models.OfferingFilter{
		CourseID:  r.URL.Query().Get("course"),
		FacultyID: r.URL.Query().Get("faculty"),
	}
	seats, err := h.service.Views.AllSeats(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, seats)
}

func (h *Handler) HandleOfferingSeats(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireRole(r, models.RoleFaculty, models.RoleStudent); err != nil {
		writeError(w, r, err)
		return
	}
	seats, err := h.service.Views.Seats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, seats)
}

// HandleRoster is open to admins and the faculty member teaching the offering.
func (h *Handler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	if err := h.requireOwner(r, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	roster, err := h.service.Views.Roster(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}

func (h *Handler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	student := r.PathValue("id")
	if err := h.authorize(r, models.RoleStudent, student); err != nil {
		writeError(w, r, err)
		return
	}
	schedule, err := h.service.Views.Schedule(r.Context(), student)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

func (h *Handler) HandleFacultyLoad(w http.ResponseWriter, r *http.Request) {
	faculty := r.PathValue("id")
	if err := h.authorize(r, models.RoleFaculty, faculty); err != nil {
		writeError(w, r, err)
		return
	}
	load, err := h.service.Views.FacultyLoad(r.Context(), faculty)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, load)
}

func (h *Handler) HandleDrift(w http.ResponseWriter, r *http.Request) {
	if err := h.requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}
	drift, err := h.service.Views.Drift(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, drift)
}

func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	if err := h.requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}
	drift, err := h.service.Engine.Reconcile(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, drift)
}

func (h *Handler) HandleGetSequence(w http.ResponseWriter, r *http.Request) {
	if err := h.requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}
	value, err := h.service.CurrentSequence(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sequenceBody{Value: value})
}

func (h *Handler) HandleSetSequence(w http.ResponseWriter, r *http.Request) {
	var req sequenceBody
	if err := h.requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.service.SetSequence(r.Context(), req.Value); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
