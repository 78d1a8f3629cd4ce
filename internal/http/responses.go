package http

import (
	"time"

	"campus/lms/internal/model"
	"campus/lms/internal/repository"
)

type userResponse struct {
	ID        int64  `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func mapUser(user model.User) userResponse {
	return userResponse{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		Role:      string(user.Role),
		Status:    string(user.Status),
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type courseResponse struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	ProfessorID   *int64  `json:"professor_id,omitempty"`
	ProfessorName *string `json:"professor_name,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func mapCourse(course model.Course) courseResponse {
	return courseResponse{
		ID:          course.ID,
		Title:       course.Title,
		Description: course.Description,
		ProfessorID: course.ProfessorID,
		CreatedAt:   course.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func mapCourseWithProfessor(course repository.CourseWithProfessor) courseResponse {
	resp := mapCourse(course.Course)
	resp.ProfessorName = course.ProfessorName
	return resp
}

type assignmentResponse struct {
	ID          int64  `json:"id"`
	CourseID    int64  `json:"course_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueAt       string `json:"due_at"`
	CreatedAt   string `json:"created_at"`
}

func mapAssignment(assignment model.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:          assignment.ID,
		CourseID:    assignment.CourseID,
		Title:       assignment.Title,
		Description: assignment.Description,
		DueAt:       assignment.DueAt.UTC().Format(time.RFC3339),
		CreatedAt:   assignment.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type submissionResponse struct {
	ID           int64  `json:"id"`
	AssignmentID int64  `json:"assignment_id"`
	StudentID    int64  `json:"student_id"`
	FileName     string `json:"file_name"`
	Grade        *int32 `json:"grade,omitempty"`
	SubmittedAt  string `json:"submitted_at"`
}

func mapSubmission(submission model.Submission) submissionResponse {
	return submissionResponse{
		ID:           submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    submission.StudentID,
		FileName:     submission.FileName,
		Grade:        submission.Grade,
		SubmittedAt:  submission.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

type announcementResponse struct {
	ID        int64  `json:"id"`
	CourseID  int64  `json:"course_id"`
	AuthorID  int64  `json:"author_id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

func mapAnnouncement(announcement model.Announcement) announcementResponse {
	return announcementResponse{
		ID:        announcement.ID,
		CourseID:  announcement.CourseID,
		AuthorID:  announcement.AuthorID,
		Title:     announcement.Title,
		Body:      announcement.Body,
		CreatedAt: announcement.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type attachmentResponse struct {
	FileName    string `json:"file_name"`
	DownloadURL string `json:"download_url"`
	ExpiresIn   int64  `json:"expires_in_seconds"`
}

type submissionCreatedResponse struct {
	Submission submissionResponse `json:"submission"`
	UploadURL  string             `json:"upload_url"`
	ExpiresIn  int64              `json:"expires_in_seconds"`
}
