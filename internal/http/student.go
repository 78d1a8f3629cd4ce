package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"campus/lms/internal/repository"
)

func (s *Server) handleListOpenCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.store.ListOpenCourses(r.Context())
	if err != nil {
		s.internalError(w, "list open courses", err)
		return
	}

	resp := make([]courseResponse, 0, len(courses))
	for _, course := range courses {
		resp = append(resp, mapCourseWithProfessor(course))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	courseID, ok := pathID(r, "courseID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_course_id")
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
	if course.ProfessorID == nil {
		writeError(w, http.StatusConflict, "course_not_open")
		return
	}

	enrollment, err := s.store.CreateEnrollment(r.Context(), courseID, identity.ID)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "already_enrolled")
			return
		}
		s.internalError(w, "enroll", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"course_id":   enrollment.CourseID,
		"student_id":  enrollment.StudentID,
		"enrolled_at": enrollment.EnrolledAt.UTC(),
	})
}

// requireEnrollment is the ownership sub-check for student course access:
// no enrollment row, no access.
func (s *Server) requireEnrollment(w http.ResponseWriter, r *http.Request, courseID, studentID int64) bool {
	enrolled, err := s.store.IsEnrolled(r.Context(), courseID, studentID)
	if err != nil {
		s.internalError(w, "check enrollment", err)
		return false
	}
	if !enrolled {
		writeError(w, http.StatusForbidden, "not_enrolled")
		return false
	}
	return true
}

func (s *Server) handleListCourseAssignments(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	courseID, ok := pathID(r, "courseID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_course_id")
		return
	}
	if !s.requireEnrollment(w, r, courseID, identity.ID) {
		return
	}

	assignments, err := s.store.ListAssignmentsByCourse(r.Context(), courseID)
	if err != nil {
		s.internalError(w, "list assignments", err)
		return
	}

	resp := make([]assignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		resp = append(resp, mapAssignment(assignment))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCourseAnnouncements(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	courseID, ok := pathID(r, "courseID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_course_id")
		return
	}
	if !s.requireEnrollment(w, r, courseID, identity.ID) {
		return
	}

	announcements, err := s.store.ListAnnouncementsByCourse(r.Context(), courseID)
	if err != nil {
		s.internalError(w, "list announcements", err)
		return
	}

	resp := make([]announcementResponse, 0, len(announcements))
	for _, announcement := range announcements {
		resp = append(resp, mapAnnouncement(announcement))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createSubmissionRequest struct {
	FileName string `json:"file_name"`
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	assignmentID, ok := pathID(r, "assignmentID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_assignment_id")
		return
	}

	assignment, err := s.store.GetAssignment(r.Context(), assignmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "assignment_not_found")
			return
		}
		s.internalError(w, "load assignment", err)
		return
	}
	if !s.requireEnrollment(w, r, assignment.CourseID, identity.ID) {
		return
	}

	var req createSubmissionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.FileName = strings.TrimSpace(req.FileName)
	if req.FileName == "" {
		writeError(w, http.StatusBadRequest, "missing_file_name")
		return
	}

	if s.presigner == nil {
		s.internalError(w, "presign upload", errors.New("object storage not configured"))
		return
	}

	fileKey := fmt.Sprintf("submissions/%d/%d/%s", assignmentID, identity.ID, uuid.NewString())
	submission, err := s.store.UpsertSubmission(r.Context(), assignmentID, identity.ID, req.FileName, fileKey)
	if err != nil {
		s.internalError(w, "save submission", err)
		return
	}

	uploadURL, err := s.presigner.PresignPut(r.Context(), fileKey, s.cfg.UploadURLTTL)
	if err != nil {
		s.internalError(w, "presign upload", err)
		return
	}

	writeJSON(w, http.StatusCreated, submissionCreatedResponse{
		Submission: mapSubmission(submission),
		UploadURL:  uploadURL,
		ExpiresIn:  int64(s.cfg.UploadURLTTL.Seconds()),
	})
}

func (s *Server) handleStudentAttachment(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	submissionID, ok := pathID(r, "submissionID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_submission_id")
		return
	}

	submission, err := s.store.GetSubmissionOwnedByStudent(r.Context(), submissionID, identity.ID)
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

// writeAttachment answers with a time-boxed signed download URL for a
// stored attachment.
func (s *Server) writeAttachment(w http.ResponseWriter, r *http.Request, fileKey, fileName string) {
	if s.presigner == nil {
		s.internalError(w, "presign download", errors.New("object storage not configured"))
		return
	}

	downloadURL, err := s.presigner.PresignGet(r.Context(), fileKey, s.cfg.DownloadURLTTL)
	if err != nil {
		s.internalError(w, "presign download", err)
		return
	}

	writeJSON(w, http.StatusOK, attachmentResponse{
		FileName:    fileName,
		DownloadURL: downloadURL,
		ExpiresIn:   int64(s.cfg.DownloadURLTTL.Seconds()),
	})
}
