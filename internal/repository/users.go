package repository

import (
	"context"

	"campus/lms/internal/model"
)

const userColumns = `id, full_name, email, password_hash, role, status, created_at`

func scanUser(row interface{ Scan(dest ...any) error }) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.CreatedAt,
	)
	return user, err
}

func (s *Store) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (full_name, email, password_hash, role, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns+`
	`, user.FullName, user.Email, user.PasswordHash, user.Role, user.Status)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, userID int64) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, userID)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

func (s *Store) ListProfessors(ctx context.Context, status *model.Status) ([]model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = 'professor'
	`
	args := []any{}
	if status != nil {
		query += ` AND status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var professors []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		professors = append(professors, user)
	}
	return professors, rows.Err()
}

func (s *Store) UpdateUserStatus(ctx context.Context, userID int64, status model.Status) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users
		SET status = $1
		WHERE id = $2
		RETURNING `+userColumns+`
	`, status, userID)
	return scanUser(row)
}

func (s *Store) HasRoot(ctx context.Context) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE role = 'root')`).Scan(&exists)
	return exists, err
}
