package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"campus/lms/internal/repository"
)

func (s *Server) handleListOwnCourses(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	courses, err := s.store.ListCoursesByProfessor(r.Context(), identity.ID)
	if err != nil {
		s.internalError(w, "list own courses", err)
		return
	}

	resp := make([]courseResponse, 0, len(courses))
	for _, course := range courses {
		resp = append(resp, mapCourse(course))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createAssignmentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueAt       string `json:"due_at"`
}

func (s *Server) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	courseID, ok := pathID(r, "courseID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_course_id")
		return
	}

	// Ownership check before any write: a course not taught by the caller
	// is indistinguishable from a missing one.
	if _, err := s.store.GetCourseOwned(r.Context(), courseID, identity.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "course_not_found")
			return
		}
		s.internalError(w, "load course", err)
		return
	}

	var req createAssignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.DueAt == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	dueAt, err := time.Parse(time.RFC3339, req.DueAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_due_date")
		return
	}

	assignment, err := s.store.CreateAssignment(r.Context(), courseID, req.Title, strings.TrimSpace(req.Description), dueAt)
	if err != nil {
		s.internalError(w, "create assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, mapAssignment(assignment))
}

type updateAssignmentRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	DueAt       *string `json:"due_at,omitempty"`
}

func (s *Server) handleUpdateAssignment(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	assignmentID, ok := pathID(r, "assignmentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_assignment_id")
		return
	}

	if _, err := s.store.GetAssignmentOwned(r.Context(), assignmentID, identity.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "assignment_not_found")
			return
		}
		s.internalError(w, "load assignment", err)
		return
	}

	var req updateAssignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	update := repository.AssignmentUpdate{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			writeError(w, http.StatusBadRequest, "missing_title")
			return
		}
		update.Title = &title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		update.Description = &description
	}
	if req.DueAt != nil {
		dueAt, err := time.Parse(time.RFC3339, *req.DueAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_due_date")
			return
		}
		update.DueAt = &dueAt
	}

	assignment, err := s.store.UpdateAssignment(r.Context(), assignmentID, update)
	if err != nil {
		s.internalError(w, "update assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, mapAssignment(assignment))
}

func (s *Server) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	assignmentID, ok := pathID(r, "assignmentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_assignment_id")
		return
	}

	if _, err := s.store.GetAssignmentOwned(r.Context(), assignmentID, identity.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "assignment_not_found")
			return
		}
		s.internalError(w, "load assignment", err)
		return
	}

	if err := s.store.DeleteAssignmentCascade(r.Context(), assignmentID); err != nil {
		s.internalError(w, "delete assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	assignmentID, ok := pathID(r, "assignmentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_assignment_id")
		return
	}

	if _, err := s.store.GetAssignmentOwned(r.Context(), assignmentID, identity.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "assignment_not_found")
			return
		}
		s.internalError(w, "load assignment", err)
		return
	}

	submissions, err := s.store.ListSubmissionsByAssignment(r.Context(), assignmentID)
	if err != nil {
		s.internalError(w, "list submissions", err)
		return
	}

	resp := make([]submissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		resp = append(resp, mapSubmission(submission))
	}
	writeJSON(w, http.StatusOK, resp)
}

type gradeRequest struct {
	Grade int32 `json:"grade"`
}

func (s *Server) handleGradeSubmission(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	submissionID, ok := pathID(r, "submissionID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_submission_id")
		return
	}

	if _, err := s.store.GetSubmissionOwnedByProfessor(r.Context(), submissionID, identity.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "submission_not_found")
			return
		}
		s.internalError(w, "load submission", err)
		return
	}

	var req gradeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Grade < 0 || req.Grade > 100 {
		writeError(w, http.StatusBadRequest, "invalid_grade")
		return
	}

	submission, err := s.store.UpdateSubmissionGrade(r.Context(), submissionID, req.Grade)
	if err != nil {
		s.internalError(w, "grade submission", err)
		return
	}
	writeJSON(w, http.StatusOK, mapSubmission(submission))
}

func (s *Server) handleProfessorAttachment(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	submissionID, ok := pathID(r, "submissionID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_submission_id")
		return
	}

	submission, err := s.store.GetSubmissionOwnedByProfessor(r.Context(), submissionID, identity.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "submission_not_found")
			return
		}
		s.internalError(w, "load submission", err)
		return
	}

	s.writeAttachment(w, r, submission.FileKey, submission.FileName)
}

type createAnnouncementRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *Server) handleCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	courseID, ok := pathID(r, "courseID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_course_id")
		return
	}

	if _, err := s.store.GetCourseOwned(r.Context(), courseID, identity.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "course_not_found")
			return
		}
		s.internalError(w, "load course", err)
		return
	}

	var req createAnnouncementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Body = strings.TrimSpace(req.Body)
	if req.Title == "" || req.Body == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	announcement, err := s.store.CreateAnnouncement(r.Context(), courseID, identity.ID, req.Title, req.Body)
	if err != nil {
		s.internalError(w, "create announcement", err)
		return
	}
	writeJSON(w, http.StatusCreated, mapAnnouncement(announcement))
}
