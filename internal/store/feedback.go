package store

import (
	"context"

	"github.com/google/uuid"

	"video-recognizer/internal/models"
)

// AppendFeedback inserts one correction record. Records are append-only;
// there is no update or delete path.
func (s *Store) AppendFeedback(ctx context.Context, f *models.Feedback) error {
	query := `
		INSERT INTO feedback (id, video_id, filename, original_action, correct_action, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, query,
		f.ID, f.VideoID, f.Filename, f.OriginalAction, f.CorrectAction, f.Comment, f.CreatedAt)
	if err != nil {
		return unavailable("append feedback", err)
	}
	return nil
}

// ListFeedback returns all corrections for one video, oldest first.
func (s *Store) ListFeedback(ctx context.Context, videoID uuid.UUID) ([]models.Feedback, error) {
	query := `
		SELECT id, video_id, filename, original_action, correct_action, comment, created_at
		FROM feedback
		WHERE video_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.pool.Query(ctx, query, videoID)
	if err != nil {
		return nil, unavailable("list feedback", err)
	}
	defer rows.Close()

	feedback := []models.Feedback{}
	for rows.Next() {
		var f models.Feedback
		var originalAction, comment *string
		if err := rows.Scan(&f.ID, &f.VideoID, &f.Filename, &originalAction, &f.CorrectAction, &comment, &f.CreatedAt); err != nil {
			return nil, unavailable("list feedback", err)
		}
		f.OriginalAction = deref(originalAction)
		f.Comment = deref(comment)
		feedback = append(feedback, f)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list feedback", err)
	}
	return feedback, nil
}
