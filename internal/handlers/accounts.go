package handlers

import (
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/coursereg/internal/models"
)

type loginRequest struct {
	Role     models.Role `json:"role"`
	ID       string      `json:"id"`
	Password string      `json:"password"`
}

type accountRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.service.Auth.Login(r.Context(), req.Role, req.ID, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.Info.Printf("%s %s logged in", session.Role, session.UserID)
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, err := h.service.Auth.BearerToken(r.Header.Get)
	if err == nil {
		err = h.service.Auth.Logout(r.Context(), token)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListStudents(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireRole(r, models.RoleFaculty); err != nil {
		writeError(w, r, err)
		return
	}
	students, err := h.service.Accounts.ListStudents(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *Handler) HandleAddStudent(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := h.requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	student, err := h.service.Accounts.AddStudent(r.Context(), req.ID, req.Name, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

func (h *Handler) HandleGetStudent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.authorize(r, models.RoleStudent, id); err != nil {
		writeError(w, r, err)
		return
	}
	student, err := h.service.Accounts.GetStudent(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (h *Handler) HandleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	id := r.PathValue("id")
	if err := h.authorize(r, models.RoleStudent, id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	student, err := h.service.Accounts.UpdateStudent(r.Context(), id, req.Name, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (h *Handler) HandleListFaculty(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireRole(r, models.RoleFaculty, models.RoleStudent); err != nil {
		writeError(w, r, err)
		return
	}
	faculty, err := h.service.Accounts.ListFaculty(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, faculty)
}

func (h *Handler) HandleAddFaculty(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := h.requireAdmin(r); err != nil {
		writeError(w, r, err)
		return
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	faculty, err := h.service.Accounts.AddFaculty(r.Context(), req.ID, req.Name, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, faculty)
}

func (h *Handler) HandleGetFaculty(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireRole(r, models.RoleFaculty, models.RoleStudent); err != nil {
		writeError(w, r, err)
		return
	}
	faculty, err := h.service.Accounts.GetFaculty(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, faculty)
}

func (h *Handler) HandleUpdateFaculty(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	id := r.PathValue("id")
	if err := h.authorize(r, models.RoleFaculty, id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	faculty, err := h.service.Accounts.UpdateFaculty(r.Context(), id, req.Name, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, faculty)
}
