package repository

import (
	"context"

	"campus/lms/internal/model"
)

func (s *Store) CreateEnrollment(ctx context.Context, courseID, studentID int64) (model.Enrollment, error) {
	var enrollment model.Enrollment
	row := s.pool.QueryRow(ctx, `
		INSERT INTO enrollments (course_id, student_id)
		VALUES ($1, $2)
		RETURNING course_id, student_id, enrolled_at
	`, courseID, studentID)
	err := row.Scan(&enrollment.CourseID, &enrollment.StudentID, &enrollment.EnrolledAt)
	return enrollment, err
}

func (s *Store) IsEnrolled(ctx context.Context, courseID, studentID int64) (bool, error) {
	var enrolled bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM enrollments WHERE course_id = $1 AND student_id = $2)
	`, courseID, studentID).Scan(&enrolled)
	return enrolled, err
}
