package feedback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"video-recognizer/internal/models"
	"video-recognizer/internal/store"
)

// ErrVideoNotFound is returned when feedback references a video that does
// not exist. No record is created in that case.
var ErrVideoNotFound = errors.New("video not found")

// VideoStore is the subset of the store the feedback service needs. It
// reads videos and writes only the feedback mirror fields; status, action
// and error belong to the pipeline.
type VideoStore interface {
	GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error)
	UpdateVideo(ctx context.Context, id uuid.UUID, u store.VideoUpdate) error
	AppendFeedback(ctx context.Context, f *models.Feedback) error
}

// Cache invalidates cached video responses. Optional.
type Cache interface {
	Delete(ctx context.Context, key string) error
}

// Service records human corrections against processed videos. Corrections
// are append-only; a video may accumulate any number of them, with the
// latest one mirrored onto the video record.
type Service struct {
	store VideoStore
	cache Cache
}

func NewService(s VideoStore, cache Cache) *Service {
	return &Service{store: s, cache: cache}
}

// Submit appends a correction for the given video. The video must exist but
// may be in any status; a correction against a failed video snapshots an
// empty original action.
func (s *Service) Submit(ctx context.Context, videoID uuid.UUID, correctAction, comment string) (*models.Feedback, error) {
	video, err := s.store.GetVideo(ctx, videoID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load video %s: %w", videoID, err)
	}

	record := &models.Feedback{
		ID:             uuid.New(),
		VideoID:        video.ID,
		Filename:       video.Filename,
		OriginalAction: video.Action,
		CorrectAction:  correctAction,
		Comment:        comment,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.AppendFeedback(ctx, record); err != nil {
		return nil, fmt.Errorf("append feedback: %w", err)
	}

	hasFeedback := true
	update := store.VideoUpdate{
		HasFeedback:     &hasFeedback,
		FeedbackAction:  &correctAction,
		FeedbackComment: &comment,
	}
	if err := s.store.UpdateVideo(ctx, video.ID, update); err != nil {
		return nil, fmt.Errorf("mirror feedback onto video: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, store.VideoCacheKey(video.ID)); err != nil {
			log.Printf("WARNING: failed to invalidate cache for %s: %v", video.ID, err)
		}
	}

	return record, nil
}
