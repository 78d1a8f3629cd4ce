package repository

import (
	"context"

	"campus/lms/internal/model"
)

const submissionColumns = `id, assignment_id, student_id, file_name, file_key, grade, submitted_at`

func scanSubmission(row interface{ Scan(dest ...any) error }) (model.Submission, error) {
	var submission model.Submission
	err := row.Scan(
		&submission.ID,
		&submission.AssignmentID,
		&submission.StudentID,
		&submission.FileName,
		&submission.FileKey,
		&submission.Grade,
		&submission.SubmittedAt,
	)
	return submission, err
}

// UpsertSubmission creates or replaces the student's submission for an
// assignment. Re-submitting resets the grade.
func (s *Store) UpsertSubmission(ctx context.Context, assignmentID, studentID int64, fileName, fileKey string) (model.Submission, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO submissions (assignment_id, student_id, file_name, file_key)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (assignment_id, student_id) DO UPDATE
		SET file_name = EXCLUDED.file_name,
		    file_key = EXCLUDED.file_key,
		    grade = NULL,
		    submitted_at = now()
		RETURNING `+submissionColumns+`
	`, assignmentID, studentID, fileName, fileKey)
	return scanSubmission(row)
}

func (s *Store) GetSubmission(ctx context.Context, submissionID int64) (model.Submission, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE id = $1
	`, submissionID)
	return scanSubmission(row)
}

// GetSubmissionOwnedByStudent resolves the submission only when it belongs
// to the given student.
func (s *Store) GetSubmissionOwnedByStudent(ctx context.Context, submissionID, studentID int64) (model.Submission, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE id = $1 AND student_id = $2
	`, submissionID, studentID)
	return scanSubmission(row)
}

// GetSubmissionOwnedByProfessor resolves the submission only when its
// assignment's course belongs to the given professor.
func (s *Store) GetSubmissionOwnedByProfessor(ctx context.Context, submissionID, professorID int64) (model.Submission, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT s.id, s.assignment_id, s.student_id, s.file_name, s.file_key, s.grade, s.submitted_at
		FROM submissions s
		JOIN assignments a ON a.id = s.assignment_id
		JOIN courses c ON c.id = a.course_id
		WHERE s.id = $1 AND c.professor_id = $2
	`, submissionID, professorID)
	return scanSubmission(row)
}

func (s *Store) ListSubmissionsByAssignment(ctx context.Context, assignmentID int64) ([]model.Submission, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE assignment_id = $1
		ORDER BY submitted_at
	`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []model.Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, submission)
	}
	return submissions, rows.Err()
}

func (s *Store) UpdateSubmissionGrade(ctx context.Context, submissionID int64, grade int32) (model.Submission, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE submissions
		SET grade = $1
		WHERE id = $2
		RETURNING `+submissionColumns+`
	`, grade, submissionID)
	return scanSubmission(row)
}
