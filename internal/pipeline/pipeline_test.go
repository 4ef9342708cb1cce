package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"video-recognizer/internal/events"
	"video-recognizer/internal/media"
	"video-recognizer/internal/models"
	"video-recognizer/internal/recognizer"
	"video-recognizer/internal/store"
)

type fakeStore struct {
	mu        sync.Mutex
	videos    map[uuid.UUID]*models.Video
	createErr error
	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{videos: map[uuid.UUID]*models.Video{}}
}

func (s *fakeStore) CreateVideo(ctx context.Context, v *models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	clone := *v
	s.videos[v.ID] = &clone
	return nil
}

func (s *fakeStore) UpdateVideo(ctx context.Context, id uuid.UUID, u store.VideoUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	v, ok := s.videos[id]
	if !ok {
		return store.ErrNotFound
	}
	if u.Status != nil {
		v.Status = *u.Status
	}
	if u.Action != nil {
		v.Action = *u.Action
	}
	if u.Confidence != nil {
		v.Confidence = u.Confidence
	}
	if u.ActionDetails != nil {
		v.ActionDetails = u.ActionDetails
	}
	if u.OriginalInfo != nil {
		v.OriginalInfo = u.OriginalInfo
	}
	if u.NormalizedInfo != nil {
		v.NormalizedInfo = u.NormalizedInfo
	}
	if u.Error != nil {
		v.Error = *u.Error
	}
	if u.ArchiveObject != nil {
		v.ArchiveObject = *u.ArchiveObject
	}
	if u.ThumbnailObject != nil {
		v.ThumbnailObject = *u.ThumbnailObject
	}
	if u.ProcessedTime != nil {
		v.ProcessedTime = u.ProcessedTime
	}
	return nil
}

func (s *fakeStore) get(id string) *models.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	parsed, _ := uuid.Parse(id)
	return s.videos[parsed]
}

type fakeNormalizer struct {
	mu    sync.Mutex
	calls int
}

func (n *fakeNormalizer) Normalize(ctx context.Context, inputPath, outputPath string) (media.NormalizeResult, error) {
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()

	if strings.Contains(inputPath, "corrupt") {
		return media.NormalizeResult{}, &media.TransformError{Path: inputPath, Stderr: "moov atom not found"}
	}
	if err := os.WriteFile(outputPath, []byte("normalized"), 0o644); err != nil {
		return media.NormalizeResult{}, err
	}
	return media.NormalizeResult{
		Original:   models.MediaInfo{FPS: 25, Width: 640, Height: 480, Format: "MP4", Codec: "h264"},
		Normalized: models.MediaInfo{FPS: 30, Width: 320, Height: 240, Format: "AVI", Codec: "XVID"},
	}, nil
}

func (n *fakeNormalizer) ExtractThumbnail(ctx context.Context, videoPath, outputPath string) error {
	return os.WriteFile(outputPath, []byte("png"), 0o644)
}

type fakeRecognizer struct {
	mu     sync.Mutex
	calls  int
	result recognizer.Result
	err    error
}

func (r *fakeRecognizer) Recognize(ctx context.Context, path string) (recognizer.Result, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return recognizer.Result{}, r.err
	}
	return r.result, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.VideoProcessed
}

func (p *fakePublisher) PublishProcessed(ctx context.Context, event events.VideoProcessed) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	deleted []string
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, key)
	return nil
}

type fixture struct {
	pipeline   *Pipeline
	store      *fakeStore
	normalizer *fakeNormalizer
	recognizer *fakeRecognizer
	publisher  *fakePublisher
	cache      *fakeCache
	workDir    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      newFakeStore(),
		normalizer: &fakeNormalizer{},
		recognizer: &fakeRecognizer{result: recognizer.Result{Action: "catch", Confidence: 1.0}},
		publisher:  &fakePublisher{},
		cache:      &fakeCache{},
		workDir:    t.TempDir(),
	}

	p, err := New(Options{
		Store:         f.store,
		Normalizer:    f.normalizer,
		Recognizer:    f.recognizer,
		Publisher:     f.publisher,
		Cache:         f.cache,
		WorkDir:       f.workDir,
		MaxConcurrent: 4,
	})
	if err != nil {
		t.Fatal(err)
	}
	f.pipeline = p
	return f
}

func (f *fixture) workDirEntries(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.workDir)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func upload(name string) Upload {
	return Upload{Filename: name, Data: strings.NewReader("fake video bytes")}
}

func TestProcessUploadCompleted(t *testing.T) {
	f := newFixture(t)

	res, err := f.pipeline.ProcessUpload(context.Background(), upload("demo clip.mp4"))
	if err != nil {
		t.Fatalf("ProcessUpload() error = %v", err)
	}

	if res.Status != models.StatusCompleted {
		t.Fatalf("Status = %s, want completed", res.Status)
	}
	if res.Action != "catch" {
		t.Errorf("Action = %q, want catch", res.Action)
	}
	if res.Confidence == nil || *res.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", res.Confidence)
	}
	if res.Error != "" {
		t.Errorf("Error = %q, want empty on completed result", res.Error)
	}

	v := f.store.get(res.VideoID)
	if v == nil {
		t.Fatal("video record not persisted")
	}
	if v.Filename != "demo_clip.mp4" {
		t.Errorf("Filename = %q, want sanitized demo_clip.mp4", v.Filename)
	}
	if v.Status != models.StatusCompleted {
		t.Errorf("stored status = %s, want completed", v.Status)
	}
	if v.Action == "" || v.Error != "" {
		t.Errorf("terminal record must have action xor error, got action=%q error=%q", v.Action, v.Error)
	}
	if v.OriginalInfo == nil || v.NormalizedInfo == nil {
		t.Error("media info not persisted")
	}
	if v.ProcessedTime == nil {
		t.Error("processed_time not set")
	}

	if got := f.workDirEntries(t); got != 0 {
		t.Errorf("work dir has %d leftover files, want 0", got)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].Status != models.StatusCompleted {
		t.Errorf("events = %+v, want one completed event", f.publisher.events)
	}
	if len(f.cache.deleted) != 1 {
		t.Errorf("cache invalidations = %d, want 1", len(f.cache.deleted))
	}
}

func TestProcessUploadNormalizeFailureStopsPipeline(t *testing.T) {
	f := newFixture(t)

	res, err := f.pipeline.ProcessUpload(context.Background(), upload("corrupt.mp4"))
	if err != nil {
		t.Fatalf("ProcessUpload() error = %v, domain failures must not propagate", err)
	}

	if res.Status != models.StatusError {
		t.Fatalf("Status = %s, want error", res.Status)
	}
	if !strings.Contains(res.Error, "moov atom") {
		t.Errorf("Error = %q, want transform failure message", res.Error)
	}
	if f.recognizer.calls != 0 {
		t.Errorf("recognizer called %d times after normalization failure, want 0", f.recognizer.calls)
	}

	v := f.store.get(res.VideoID)
	if v.Status != models.StatusError {
		t.Errorf("stored status = %s, want error", v.Status)
	}
	if v.Action != "" {
		t.Errorf("Action = %q, must be empty on error record", v.Action)
	}
	if v.ProcessedTime == nil {
		t.Error("processed_time not set on error record")
	}
	if got := f.workDirEntries(t); got != 0 {
		t.Errorf("work dir has %d leftover files after failure, want 0", got)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].Status != models.StatusError {
		t.Errorf("events = %+v, want one error event", f.publisher.events)
	}
}

func TestProcessUploadRecognizeFailureKeepsMediaInfo(t *testing.T) {
	f := newFixture(t)
	f.recognizer.err = &recognizer.ServiceError{StatusCode: 500, Body: "model crashed"}

	res, err := f.pipeline.ProcessUpload(context.Background(), upload("demo.mp4"))
	if err != nil {
		t.Fatalf("ProcessUpload() error = %v", err)
	}

	if res.Status != models.StatusError {
		t.Fatalf("Status = %s, want error", res.Status)
	}
	v := f.store.get(res.VideoID)
	if v.OriginalInfo == nil || v.NormalizedInfo == nil {
		t.Error("media info should survive a recognition failure")
	}
	if v.Error == "" || v.Action != "" {
		t.Errorf("terminal record must have action xor error, got action=%q error=%q", v.Action, v.Error)
	}
}

func TestProcessUploadStoreCreateFailure(t *testing.T) {
	f := newFixture(t)
	f.store.createErr = store.ErrUnavailable

	res, err := f.pipeline.ProcessUpload(context.Background(), upload("demo.mp4"))
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("ProcessUpload() error = %v, want ErrUnavailable", err)
	}
	if res.Status != models.StatusError {
		t.Errorf("Status = %s, want error", res.Status)
	}
	if f.normalizer.calls != 0 {
		t.Error("pipeline must not run when the record cannot be created")
	}
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	f := newFixture(t)

	uploads := []Upload{
		upload("first.mp4"),
		upload("corrupt middle.mp4"),
		upload("third.mp4"),
	}

	results := f.pipeline.ProcessBatch(context.Background(), uploads)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	wantStatus := []models.VideoStatus{models.StatusCompleted, models.StatusError, models.StatusCompleted}
	wantFilename := []string{"first.mp4", "corrupt_middle.mp4", "third.mp4"}
	for i, res := range results {
		if res.Status != wantStatus[i] {
			t.Errorf("result %d status = %s, want %s", i, res.Status, wantStatus[i])
		}
		v := f.store.get(res.VideoID)
		if v == nil {
			t.Fatalf("result %d has no persisted record", i)
		}
		if v.Filename != wantFilename[i] {
			t.Errorf("result %d filename = %q, want %q (input order must be preserved)", i, v.Filename, wantFilename[i])
		}
	}

	if got := f.workDirEntries(t); got != 0 {
		t.Errorf("work dir has %d leftover files, want 0", got)
	}
}

func TestProcessBatchEmpty(t *testing.T) {
	f := newFixture(t)
	results := f.pipeline.ProcessBatch(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("got %d results for empty batch, want 0", len(results))
	}
}
