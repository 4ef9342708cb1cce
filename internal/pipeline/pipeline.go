package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"video-recognizer/internal/events"
	"video-recognizer/internal/media"
	"video-recognizer/internal/models"
	"video-recognizer/internal/recognizer"
	"video-recognizer/internal/store"
	miniostorage "video-recognizer/internal/storage/minio"
)

// Normalizer brings an uploaded file into the canonical format and extracts
// poster frames.
type Normalizer interface {
	Normalize(ctx context.Context, inputPath, outputPath string) (media.NormalizeResult, error)
	ExtractThumbnail(ctx context.Context, videoPath, outputPath string) error
}

// Recognizer classifies a canonical video file.
type Recognizer interface {
	Recognize(ctx context.Context, path string) (recognizer.Result, error)
}

// VideoStore is the subset of the store the pipeline needs. The pipeline is
// the only writer of status, action and error fields.
type VideoStore interface {
	CreateVideo(ctx context.Context, v *models.Video) error
	UpdateVideo(ctx context.Context, id uuid.UUID, u store.VideoUpdate) error
}

// Archiver persists normalized videos and thumbnails to object storage.
// Optional; archival failures never affect pipeline status.
type Archiver interface {
	ArchiveFile(ctx context.Context, bucketName, objectName, filePath, contentType string) error
}

// Publisher emits lifecycle events on terminal transitions. Optional.
type Publisher interface {
	PublishProcessed(ctx context.Context, event events.VideoProcessed) error
}

// Cache invalidates cached video responses. Optional.
type Cache interface {
	Delete(ctx context.Context, key string) error
}

// Result mirrors the final video record. Every submission, success or
// failure, is reported in this shape.
type Result struct {
	VideoID       string             `json:"video_id,omitempty"`
	Status        models.VideoStatus `json:"status"`
	Action        string             `json:"action,omitempty"`
	Confidence    *float64           `json:"confidence,omitempty"`
	ActionDetails map[string]any     `json:"action_details,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// Upload is one submitted file.
type Upload struct {
	Filename string
	Data     io.Reader
}

// Options wires the pipeline's collaborators. Archiver, Publisher and Cache
// may be nil.
type Options struct {
	Store      VideoStore
	Normalizer Normalizer
	Recognizer Recognizer
	Archiver   Archiver
	Publisher  Publisher
	Cache      Cache

	WorkDir          string
	TranscodeTimeout time.Duration
	RecognizeTimeout time.Duration
	MaxConcurrent    int
}

// Pipeline drives one uploaded video from received to a terminal status:
// received → processing → {completed, error}. A retried submission creates
// a new record; terminal records are never resurrected.
type Pipeline struct {
	opts Options
}

func New(opts Options) (*Pipeline, error) {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if err := os.MkdirAll(opts.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir %s: %w", opts.WorkDir, err)
	}
	return &Pipeline{opts: opts}, nil
}

// ProcessUpload runs the full pipeline for a single file and returns a
// result mirroring the terminal record. The returned error is non-nil only
// when the store itself failed; domain failures (probe, transform,
// recognition) terminate the video in error status and are reported inside
// the Result.
func (p *Pipeline) ProcessUpload(ctx context.Context, up Upload) (Result, error) {
	video := &models.Video{
		ID:         uuid.New(),
		Filename:   media.SanitizeFilename(up.Filename),
		Status:     models.StatusReceived,
		UploadTime: time.Now().UTC(),
	}

	if err := p.opts.Store.CreateVideo(ctx, video); err != nil {
		log.Printf("ERROR: failed to create video record for %s: %v", video.Filename, err)
		return Result{Status: models.StatusError, Error: err.Error()}, err
	}

	return p.process(ctx, video, up.Data)
}

// ProcessBatch fans out one independent pipeline per upload and joins them
// all, preserving input order in the output. One item's failure never
// cancels or delays the others.
func (p *Pipeline) ProcessBatch(ctx context.Context, uploads []Upload) []Result {
	results := make([]Result, len(uploads))

	g := new(errgroup.Group)
	g.SetLimit(p.opts.MaxConcurrent)

	for i, up := range uploads {
		i, up := i, up
		g.Go(func() error {
			res, _ := p.ProcessUpload(ctx, up)
			results[i] = res
			return nil
		})
	}
	// Every task returns nil; failures are carried in the indexed results.
	_ = g.Wait()

	return results
}

func (p *Pipeline) process(ctx context.Context, video *models.Video, data io.Reader) (Result, error) {
	uploadPath := media.UploadPath(p.opts.WorkDir, video.ID, video.Filename)
	normalizedPath := media.NormalizedPath(p.opts.WorkDir, video.ID)
	thumbnailPath := media.ThumbnailPath(p.opts.WorkDir, video.ID)

	defer func() {
		for _, path := range []string{uploadPath, normalizedPath, thumbnailPath} {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				log.Printf("WARNING: failed to remove working file %s: %v", path, err)
			}
		}
	}()

	if err := saveUpload(uploadPath, data); err != nil {
		return p.fail(ctx, video, fmt.Sprintf("failed to save upload: %v", err))
	}

	if err := p.transition(ctx, video, models.StatusProcessing, store.VideoUpdate{}); err != nil {
		return p.fail(ctx, video, err.Error())
	}

	norm, err := p.normalize(ctx, uploadPath, normalizedPath)
	if err != nil {
		return p.fail(ctx, video, err.Error())
	}

	// Persist stream metadata as soon as it is known so a later recognition
	// failure still leaves it on the record.
	infoUpdate := store.VideoUpdate{
		OriginalInfo:   &norm.Original,
		NormalizedInfo: &norm.Normalized,
	}
	if err := p.opts.Store.UpdateVideo(ctx, video.ID, infoUpdate); err != nil {
		log.Printf("WARNING: failed to persist media info for %s: %v", video.ID, err)
	}

	rec, err := p.recognize(ctx, normalizedPath)
	if err != nil {
		return p.fail(ctx, video, err.Error())
	}

	update := store.VideoUpdate{
		Status:        statusPtr(models.StatusCompleted),
		Action:        &rec.Action,
		Confidence:    &rec.Confidence,
		ActionDetails: rec.Details,
		ProcessedTime: timePtr(time.Now().UTC()),
	}
	p.archive(ctx, video, normalizedPath, thumbnailPath, &update)

	if err := p.transition(ctx, video, models.StatusCompleted, update); err != nil {
		log.Printf("ERROR: failed to finalize video %s: %v", video.ID, err)
		return Result{VideoID: video.ID.String(), Status: models.StatusError, Error: err.Error()}, err
	}

	p.finish(ctx, video, rec.Action, "")

	return Result{
		VideoID:       video.ID.String(),
		Status:        models.StatusCompleted,
		Action:        rec.Action,
		Confidence:    &rec.Confidence,
		ActionDetails: rec.Details,
	}, nil
}

func (p *Pipeline) normalize(ctx context.Context, uploadPath, normalizedPath string) (media.NormalizeResult, error) {
	stepCtx, cancel := withTimeout(ctx, p.opts.TranscodeTimeout)
	defer cancel()

	norm, err := p.opts.Normalizer.Normalize(stepCtx, uploadPath, normalizedPath)
	if err != nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		return norm, fmt.Errorf("normalization timed out after %s", p.opts.TranscodeTimeout)
	}
	return norm, err
}

func (p *Pipeline) recognize(ctx context.Context, normalizedPath string) (recognizer.Result, error) {
	stepCtx, cancel := withTimeout(ctx, p.opts.RecognizeTimeout)
	defer cancel()

	rec, err := p.opts.Recognizer.Recognize(stepCtx, normalizedPath)
	if err != nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		return rec, fmt.Errorf("recognition timed out after %s", p.opts.RecognizeTimeout)
	}
	return rec, err
}

// archive extracts a thumbnail and uploads it and the normalized file to
// object storage. Every step here is best-effort.
func (p *Pipeline) archive(ctx context.Context, video *models.Video, normalizedPath, thumbnailPath string, update *store.VideoUpdate) {
	if p.opts.Archiver == nil {
		return
	}

	archiveObject := video.ID.String() + ".avi"
	if err := p.opts.Archiver.ArchiveFile(ctx, miniostorage.VideoBucket, archiveObject, normalizedPath, "video/x-msvideo"); err != nil {
		log.Printf("WARNING: failed to archive normalized video %s: %v", video.ID, err)
	} else {
		update.ArchiveObject = &archiveObject
	}

	if err := p.opts.Normalizer.ExtractThumbnail(ctx, normalizedPath, thumbnailPath); err != nil {
		log.Printf("WARNING: failed to extract thumbnail for %s: %v", video.ID, err)
		return
	}
	thumbnailObject := video.ID.String() + ".png"
	if err := p.opts.Archiver.ArchiveFile(ctx, miniostorage.ThumbnailBucket, thumbnailObject, thumbnailPath, "image/png"); err != nil {
		log.Printf("WARNING: failed to archive thumbnail %s: %v", video.ID, err)
		return
	}
	update.ThumbnailObject = &thumbnailObject
}

// fail moves the video to the terminal error status, recording the failure
// message. The returned error is non-nil only if the store update itself
// failed.
func (p *Pipeline) fail(ctx context.Context, video *models.Video, message string) (Result, error) {
	log.Printf("ERROR: processing video %s (%s): %s", video.ID, video.Filename, message)

	update := store.VideoUpdate{
		Error:         &message,
		ProcessedTime: timePtr(time.Now().UTC()),
	}
	if err := p.transition(ctx, video, models.StatusError, update); err != nil {
		log.Printf("ERROR: failed to record error status for %s: %v", video.ID, err)
		return Result{VideoID: video.ID.String(), Status: models.StatusError, Error: message}, err
	}

	p.finish(ctx, video, "", message)

	return Result{
		VideoID: video.ID.String(),
		Status:  models.StatusError,
		Error:   message,
	}, nil
}

// transition applies a status change plus accompanying fields, guarding
// against moves the state machine does not permit.
func (p *Pipeline) transition(ctx context.Context, video *models.Video, next models.VideoStatus, update store.VideoUpdate) error {
	if !video.Status.CanTransitionTo(next) {
		return fmt.Errorf("invalid status transition %s → %s", video.Status, next)
	}
	update.Status = &next
	if err := p.opts.Store.UpdateVideo(ctx, video.ID, update); err != nil {
		return err
	}
	video.Status = next
	return nil
}

// finish publishes the terminal event and drops the cached response.
func (p *Pipeline) finish(ctx context.Context, video *models.Video, action, errMsg string) {
	if p.opts.Publisher != nil {
		event := events.VideoProcessed{
			VideoID:    video.ID.String(),
			Filename:   video.Filename,
			Status:     video.Status,
			Action:     action,
			Error:      errMsg,
			OccurredAt: time.Now().UTC(),
		}
		if err := p.opts.Publisher.PublishProcessed(ctx, event); err != nil {
			log.Printf("WARNING: failed to publish event for %s: %v", video.ID, err)
		}
	}
	if p.opts.Cache != nil {
		if err := p.opts.Cache.Delete(ctx, store.VideoCacheKey(video.ID)); err != nil {
			log.Printf("WARNING: failed to invalidate cache for %s: %v", video.ID, err)
		}
	}
}

func saveUpload(path string, data io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func statusPtr(s models.VideoStatus) *models.VideoStatus { return &s }
func timePtr(t time.Time) *time.Time                     { return &t }
