package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"

	"campus/lms/internal/model"
)

func (s *Server) handleListProfessors(w http.ResponseWriter, r *http.Request) {
	var statusFilter *model.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := model.ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		statusFilter = &status
	}

	professors, err := s.store.ListProfessors(r.Context(), statusFilter)
	if err != nil {
		s.internalError(w, "list professors", err)
		return
	}

	resp := make([]userResponse, 0, len(professors))
	for _, professor := range professors {
		resp = append(resp, mapUser(professor))
	}
	writeJSON(w, http.StatusOK, resp)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSetProfessorStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return
	}

	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	status, err := model.ParseStatus(strings.TrimSpace(req.Status))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}

	user, err := s.store.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "professor_not_found")
			return
		}
		s.internalError(w, "load professor", err)
		return
	}
	if user.Role != model.RoleProfessor {
		writeError(w, http.StatusNotFound, "professor_not_found")
		return
	}

	if !user.Status.CanTransitionTo(status) {
		writeError(w, http.StatusConflict, "invalid_transition")
		return
	}

	updated, err := s.store.UpdateUserStatus(r.Context(), userID, status)
	if err != nil {
		s.internalError(w, "update status", err)
		return
	}
	writeJSON(w, http.StatusOK, mapUser(updated))
}

type createCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req createCourseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "missing_title")
		return
	}

	course, err := s.store.CreateCourse(r.Context(), req.Title, strings.TrimSpace(req.Description))
	if err != nil {
		s.internalError(w, "create course", err)
		return
	}
	writeJSON(w, http.StatusCreated, mapCourse(course))
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.store.ListCourses(r.Context())
	if err != nil {
		s.internalError(w, "list courses", err)
		return
	}

	resp := make([]courseResponse, 0, len(courses))
	for _, course := range courses {
		resp = append(resp, mapCourseWithProfessor(course))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAssignProfessor(w http.ResponseWriter, r *http.Request) {
	courseID, ok := pathID(r, "courseID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_course_id")
		return
	}
	professorID, ok := pathID(r, "professorID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_professor_id")
		return
	}

	course, err := s.store.GetCourse(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "course_not_found")
			return
		}
		s.internalError(w, "load course", err)
		return
	}

	professor, err := s.store.GetUserByID(r.Context(), professorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "professor_not_found")
			return
		}
		s.internalError(w, "load professor", err)
		return
	}
	if professor.Role != model.RoleProfessor {
		writeError(w, http.StatusNotFound, "professor_not_found")
		return
	}
	if professor.Status != model.StatusApproved && professor.Status != model.StatusActive {
		writeError(w, http.StatusConflict, "professor_not_approved")
		return
	}

	if course.ProfessorID != nil {
		if *course.ProfessorID == professorID {
			// Idempotent: re-assigning the same professor succeeds without
			// touching the row.
			writeJSON(w, http.StatusOK, mapCourse(course))
			return
		}
		writeError(w, http.StatusConflict, "course_already_assigned")
		return
	}

	updated, err := s.store.SetCourseProfessor(r.Context(), courseID, professorID)
	if err != nil {
		s.internalError(w, "assign professor", err)
		return
	}
	writeJSON(w, http.StatusOK, mapCourse(updated))
}

func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID, ok := pathID(r, "courseID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_course_id")
		return
	}

	if err := s.store.DeleteCourseCascade(r.Context(), courseID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "course_not_found")
			return
		}
		s.internalError(w, "delete course", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
