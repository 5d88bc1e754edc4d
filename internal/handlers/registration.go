package handlers

import (
	"net/http"

	"github.com/shrimpsizemoose/coursereg/internal/models"
)

type enrollRequest struct {
	OfferingID string `json:"offering_id"`
}

type swapRequest struct {
	OldOfferingID string `json:"old_offering_id"`
	NewOfferingID string `json:"new_offering_id"`
}

type enrollmentResponse struct {
	EnrollmentID string `json:"enrollment_id"`
	StudentID    string `json:"student_id"`
	OfferingID   string `json:"offering_id"`
}

func (h *Handler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	student := r.PathValue("id")
	if err := h.authorize(r, models.RoleStudent, student); err != nil {
		writeError(w, r, err)
		return
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.service.Engine.Enroll(r.Context(), student, req.OfferingID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, enrollmentResponse{
		EnrollmentID: id,
		StudentID:    models.NormalizeID(student),
		OfferingID:   models.NormalizeID(req.OfferingID),
	})
}

func (h *Handler) HandleDrop(w http.ResponseWriter, r *http.Request) {
	student := r.PathValue("id")
	if err := h.authorize(r, models.RoleStudent, student); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.Engine.Drop(r.Context(), student, r.PathValue("offering")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	student := r.PathValue("id")
	if err := h.authorize(r, models.RoleStudent, student); err != nil {
		writeError(w, r, err)
		return
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.service.Engine.Swap(r.Context(), student, req.OldOfferingID, req.NewOfferingID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, enrollmentResponse{
		EnrollmentID: id,
		StudentID:    models.NormalizeID(student),
		OfferingID:   models.NormalizeID(req.NewOfferingID),
	})
}

func (h *Handler) HandleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}

	report, err := h.service.Engine.ClearAllEnrollments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
