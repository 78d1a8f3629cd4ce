package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"campus/lms/internal/model"
)

// CourseWithProfessor carries the optional instructor name alongside the
// course for listing endpoints.
type CourseWithProfessor struct {
	model.Course
	ProfessorName *string
}

const courseColumns = `id, title, description, professor_id, created_at`

func scanCourse(row interface{ Scan(dest ...any) error }) (model.Course, error) {
	var course model.Course
	err := row.Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.ProfessorID,
		&course.CreatedAt,
	)
	return course, err
}

func (s *Store) CreateCourse(ctx context.Context, title, description string) (model.Course, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO courses (title, description)
		VALUES ($1, $2)
		RETURNING `+courseColumns+`
	`, title, description)
	return scanCourse(row)
}

func (s *Store) GetCourse(ctx context.Context, courseID int64) (model.Course, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+courseColumns+`
		FROM courses
		WHERE id = $1
	`, courseID)
	return scanCourse(row)
}

func (s *Store) ListCourses(ctx context.Context) ([]CourseWithProfessor, error) {
	return s.listCourses(ctx, `
		SELECT c.id, c.title, c.description, c.professor_id, c.created_at, u.full_name
		FROM courses c
		LEFT JOIN users u ON u.id = c.professor_id
		ORDER BY c.created_at
	`)
}

// ListOpenCourses returns courses that have an assigned instructor and are
// therefore open for enrollment.
func (s *Store) ListOpenCourses(ctx context.Context) ([]CourseWithProfessor, error) {
	return s.listCourses(ctx, `
		SELECT c.id, c.title, c.description, c.professor_id, c.created_at, u.full_name
		FROM courses c
		JOIN users u ON u.id = c.professor_id
		ORDER BY c.created_at
	`)
}

func (s *Store) listCourses(ctx context.Context, query string, args ...any) ([]CourseWithProfessor, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []CourseWithProfessor
	for rows.Next() {
		var course CourseWithProfessor
		if err := rows.Scan(
			&course.ID,
			&course.Title,
			&course.Description,
			&course.ProfessorID,
			&course.CreatedAt,
			&course.ProfessorName,
		); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

func (s *Store) ListCoursesByProfessor(ctx context.Context, professorID int64) ([]model.Course, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+courseColumns+`
		FROM courses
		WHERE professor_id = $1
		ORDER BY created_at
	`, professorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

// GetCourseOwned returns the course only when it belongs to the given
// professor; pgx.ErrNoRows otherwise.
func (s *Store) GetCourseOwned(ctx context.Context, courseID, professorID int64) (model.Course, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+courseColumns+`
		FROM courses
		WHERE id = $1 AND professor_id = $2
	`, courseID, professorID)
	return scanCourse(row)
}

func (s *Store) SetCourseProfessor(ctx context.Context, courseID, professorID int64) (model.Course, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE courses
		SET professor_id = $1
		WHERE id = $2
		RETURNING `+courseColumns+`
	`, professorID, courseID)
	return scanCourse(row)
}

// DeleteCourseCascade removes a course and every dependent row in one
// transaction. A failure at any step discards all prior deletes.
func (s *Store) DeleteCourseCascade(ctx context.Context, courseID int64) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		return deleteCourseRows(ctx, tx, courseID)
	})
}

func deleteCourseRows(ctx context.Context, q Querier, courseID int64) error {
	if _, err := q.Exec(ctx, `
		DELETE FROM submissions
		WHERE assignment_id IN (SELECT id FROM assignments WHERE course_id = $1)
	`, courseID); err != nil {
		return err
	}
	if _, err := q.Exec(ctx, `DELETE FROM assignments WHERE course_id = $1`, courseID); err != nil {
		return err
	}
	if _, err := q.Exec(ctx, `DELETE FROM announcements WHERE course_id = $1`, courseID); err != nil {
		return err
	}
	if _, err := q.Exec(ctx, `DELETE FROM enrollments WHERE course_id = $1`, courseID); err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM courses WHERE id = $1`, courseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
