package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"campus/lms/internal/model"
)

const assignmentColumns = `id, course_id, title, description, due_at, created_at`

func scanAssignment(row interface{ Scan(dest ...any) error }) (model.Assignment, error) {
	var assignment model.Assignment
	err := row.Scan(
		&assignment.ID,
		&assignment.CourseID,
		&assignment.Title,
		&assignment.Description,
		&assignment.DueAt,
		&assignment.CreatedAt,
	)
	return assignment, err
}

func (s *Store) CreateAssignment(ctx context.Context, courseID int64, title, description string, dueAt time.Time) (model.Assignment, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO assignments (course_id, title, description, due_at)
		VALUES ($1, $2, $3, $4)
		RETURNING `+assignmentColumns+`
	`, courseID, title, description, dueAt)
	return scanAssignment(row)
}

func (s *Store) GetAssignment(ctx context.Context, assignmentID int64) (model.Assignment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+assignmentColumns+`
		FROM assignments
		WHERE id = $1
	`, assignmentID)
	return scanAssignment(row)
}

// GetAssignmentOwned resolves the assignment only when its course belongs to
// the given professor.
func (s *Store) GetAssignmentOwned(ctx context.Context, assignmentID, professorID int64) (model.Assignment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT a.id, a.course_id, a.title, a.description, a.due_at, a.created_at
		FROM assignments a
		JOIN courses c ON c.id = a.course_id
		WHERE a.id = $1 AND c.professor_id = $2
	`, assignmentID, professorID)
	return scanAssignment(row)
}

func (s *Store) ListAssignmentsByCourse(ctx context.Context, courseID int64) ([]model.Assignment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+assignmentColumns+`
		FROM assignments
		WHERE course_id = $1
		ORDER BY due_at
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, assignment)
	}
	return assignments, rows.Err()
}

type AssignmentUpdate struct {
	Title       *string
	Description *string
	DueAt       *time.Time
}

func (s *Store) UpdateAssignment(ctx context.Context, assignmentID int64, update AssignmentUpdate) (model.Assignment, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE assignments
		SET title = COALESCE($1, title),
		    description = COALESCE($2, description),
		    due_at = COALESCE($3, due_at)
		WHERE id = $4
		RETURNING `+assignmentColumns+`
	`, update.Title, update.Description, update.DueAt, assignmentID)
	return scanAssignment(row)
}

// DeleteAssignmentCascade removes an assignment and its submissions in one
// transaction.
func (s *Store) DeleteAssignmentCascade(ctx context.Context, assignmentID int64) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM submissions WHERE assignment_id = $1`, assignmentID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM assignments WHERE id = $1`, assignmentID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
}
