package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"video-recognizer/internal/models"
)

// Store persists video and feedback records in Postgres. Videos and
// feedback are the system's two collections, both keyed by generated id.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const videoColumns = `id, filename, status, action, confidence, action_details,
	original_info, normalized_info, error, has_feedback, feedback_action,
	feedback_comment, archive_object, thumbnail_object, upload_time, processed_time`

// CreateVideo inserts a new record. The caller assigns the id and the
// initial status.
func (s *Store) CreateVideo(ctx context.Context, v *models.Video) error {
	query := `
		INSERT INTO videos (id, filename, status, upload_time)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.pool.Exec(ctx, query, v.ID, v.Filename, v.Status, v.UploadTime)
	if err != nil {
		return unavailable("create video", err)
	}
	return nil
}

// VideoUpdate describes a partial update. Nil fields are left untouched, so
// an update never clears fields it does not mention.
type VideoUpdate struct {
	Status          *models.VideoStatus
	Action          *string
	Confidence      *float64
	ActionDetails   map[string]any
	OriginalInfo    *models.MediaInfo
	NormalizedInfo  *models.MediaInfo
	Error           *string
	HasFeedback     *bool
	FeedbackAction  *string
	FeedbackComment *string
	ArchiveObject   *string
	ThumbnailObject *string
	ProcessedTime   *time.Time
}

// UpdateVideo applies a partial merge to one record. Updating a nonexistent
// id fails with ErrNotFound.
func (s *Store) UpdateVideo(ctx context.Context, id uuid.UUID, u VideoUpdate) error {
	sets := make([]string, 0, 13)
	args := make([]any, 0, 14)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.Status != nil {
		add("status", *u.Status)
	}
	if u.Action != nil {
		add("action", *u.Action)
	}
	if u.Confidence != nil {
		add("confidence", *u.Confidence)
	}
	if u.ActionDetails != nil {
		add("action_details", u.ActionDetails)
	}
	if u.OriginalInfo != nil {
		add("original_info", u.OriginalInfo)
	}
	if u.NormalizedInfo != nil {
		add("normalized_info", u.NormalizedInfo)
	}
	if u.Error != nil {
		add("error", *u.Error)
	}
	if u.HasFeedback != nil {
		add("has_feedback", *u.HasFeedback)
	}
	if u.FeedbackAction != nil {
		add("feedback_action", *u.FeedbackAction)
	}
	if u.FeedbackComment != nil {
		add("feedback_comment", *u.FeedbackComment)
	}
	if u.ArchiveObject != nil {
		add("archive_object", *u.ArchiveObject)
	}
	if u.ThumbnailObject != nil {
		add("thumbnail_object", *u.ThumbnailObject)
	}
	if u.ProcessedTime != nil {
		add("processed_time", *u.ProcessedTime)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE videos SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return unavailable("update video", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetVideo fetches one record by id.
func (s *Store) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	query := fmt.Sprintf("SELECT %s FROM videos WHERE id = $1", videoColumns)

	v, err := scanVideo(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get video", err)
	}
	return v, nil
}

// ListVideos returns all records, most recently uploaded first.
func (s *Store) ListVideos(ctx context.Context) ([]models.Video, error) {
	query := fmt.Sprintf("SELECT %s FROM videos ORDER BY upload_time DESC", videoColumns)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, unavailable("list videos", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, unavailable("list videos", err)
		}
		videos = append(videos, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list videos", err)
	}
	return videos, nil
}

func scanVideo(row pgx.Row) (*models.Video, error) {
	var v models.Video
	var action, errMsg, feedbackAction, feedbackComment, archive, thumb *string
	var details *map[string]any
	err := row.Scan(
		&v.ID,
		&v.Filename,
		&v.Status,
		&action,
		&v.Confidence,
		&details,
		&v.OriginalInfo,
		&v.NormalizedInfo,
		&errMsg,
		&v.HasFeedback,
		&feedbackAction,
		&feedbackComment,
		&archive,
		&thumb,
		&v.UploadTime,
		&v.ProcessedTime,
	)
	if err != nil {
		return nil, err
	}

	if details != nil {
		v.ActionDetails = *details
	}
	v.Action = deref(action)
	v.Error = deref(errMsg)
	v.FeedbackAction = deref(feedbackAction)
	v.FeedbackComment = deref(feedbackComment)
	v.ArchiveObject = deref(archive)
	v.ThumbnailObject = deref(thumb)
	return &v, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
