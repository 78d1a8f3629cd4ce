package repository

import (
	"context"

	"campus/lms/internal/model"
)

const announcementColumns = `id, course_id, author_id, title, body, created_at`

func scanAnnouncement(row interface{ Scan(dest ...any) error }) (model.Announcement, error) {
	var announcement model.Announcement
	err := row.Scan(
		&announcement.ID,
		&announcement.CourseID,
		&announcement.AuthorID,
		&announcement.Title,
		&announcement.Body,
		&announcement.CreatedAt,
	)
	return announcement, err
}

func (s *Store) CreateAnnouncement(ctx context.Context, courseID, authorID int64, title, body string) (model.Announcement, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO announcements (course_id, author_id, title, body)
		VALUES ($1, $2, $3, $4)
		RETURNING `+announcementColumns+`
	`, courseID, authorID, title, body)
	return scanAnnouncement(row)
}

func (s *Store) ListAnnouncementsByCourse(ctx context.Context, courseID int64) ([]model.Announcement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+announcementColumns+`
		FROM announcements
		WHERE course_id = $1
		ORDER BY created_at DESC
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var announcements []model.Announcement
	for rows.Next() {
		announcement, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		announcements = append(announcements, announcement)
	}
	return announcements, rows.Err()
}
