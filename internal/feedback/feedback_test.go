package feedback

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"video-recognizer/internal/models"
	"video-recognizer/internal/store"
)

type fakeStore struct {
	videos   map[uuid.UUID]*models.Video
	feedback []*models.Feedback
}

func newFakeStore(videos ...*models.Video) *fakeStore {
	s := &fakeStore{videos: map[uuid.UUID]*models.Video{}}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

func (s *fakeStore) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	v, ok := s.videos[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

func (s *fakeStore) UpdateVideo(ctx context.Context, id uuid.UUID, u store.VideoUpdate) error {
	v, ok := s.videos[id]
	if !ok {
		return store.ErrNotFound
	}
	if u.Status != nil || u.Action != nil || u.Error != nil {
		return errors.New("feedback must not touch pipeline-owned fields")
	}
	if u.HasFeedback != nil {
		v.HasFeedback = *u.HasFeedback
	}
	if u.FeedbackAction != nil {
		v.FeedbackAction = *u.FeedbackAction
	}
	if u.FeedbackComment != nil {
		v.FeedbackComment = *u.FeedbackComment
	}
	return nil
}

func (s *fakeStore) AppendFeedback(ctx context.Context, f *models.Feedback) error {
	s.feedback = append(s.feedback, f)
	return nil
}

func completedVideo() *models.Video {
	return &models.Video{
		ID:       uuid.New(),
		Filename: "demo.mp4",
		Status:   models.StatusCompleted,
		Action:   "clap",
	}
}

func TestSubmit(t *testing.T) {
	video := completedVideo()
	s := newFakeStore(video)
	svc := NewService(s, nil)

	record, err := svc.Submit(context.Background(), video.ID, "catch", "clearly a catch")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if record.OriginalAction != "clap" {
		t.Errorf("OriginalAction = %q, want snapshot of recognized action", record.OriginalAction)
	}
	if record.CorrectAction != "catch" {
		t.Errorf("CorrectAction = %q, want catch", record.CorrectAction)
	}
	if record.Filename != "demo.mp4" {
		t.Errorf("Filename = %q, want snapshot of video filename", record.Filename)
	}

	v := s.videos[video.ID]
	if !v.HasFeedback {
		t.Error("HasFeedback not mirrored")
	}
	if v.FeedbackAction != "catch" || v.FeedbackComment != "clearly a catch" {
		t.Errorf("mirror = %q/%q, want catch/clearly a catch", v.FeedbackAction, v.FeedbackComment)
	}
	if v.Action != "clap" || v.Status != models.StatusCompleted {
		t.Error("feedback must not alter status or action")
	}
}

func TestSubmitUnknownVideo(t *testing.T) {
	s := newFakeStore()
	svc := NewService(s, nil)

	_, err := svc.Submit(context.Background(), uuid.New(), "catch", "")
	if !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("Submit() error = %v, want ErrVideoNotFound", err)
	}
	if len(s.feedback) != 0 {
		t.Errorf("feedback records = %d, want 0 for unknown video", len(s.feedback))
	}
}

func TestSubmitAgainstErrorVideo(t *testing.T) {
	video := &models.Video{
		ID:       uuid.New(),
		Filename: "broken.mp4",
		Status:   models.StatusError,
		Error:    "transform failed",
	}
	s := newFakeStore(video)
	svc := NewService(s, nil)

	record, err := svc.Submit(context.Background(), video.ID, "chew", "")
	if err != nil {
		t.Fatalf("Submit() error = %v, corrections against failed videos are allowed", err)
	}
	if record.OriginalAction != "" {
		t.Errorf("OriginalAction = %q, want empty for a failed video", record.OriginalAction)
	}
}

func TestSubmitTwiceKeepsBothRecordsMirrorsLatest(t *testing.T) {
	video := completedVideo()
	s := newFakeStore(video)
	svc := NewService(s, nil)

	if _, err := svc.Submit(context.Background(), video.ID, "catch", "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(context.Background(), video.ID, "chew", "second"); err != nil {
		t.Fatal(err)
	}

	if len(s.feedback) != 2 {
		t.Fatalf("feedback records = %d, want 2 (append-only)", len(s.feedback))
	}
	v := s.videos[video.ID]
	if v.FeedbackAction != "chew" || v.FeedbackComment != "second" {
		t.Errorf("mirror = %q/%q, want the latest correction chew/second", v.FeedbackAction, v.FeedbackComment)
	}
}
