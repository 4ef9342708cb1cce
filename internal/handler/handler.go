package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"video-recognizer/internal/models"
	"video-recognizer/internal/pipeline"
	miniostorage "video-recognizer/internal/storage/minio"
)

// MaxUploadSize bounds a single submission, batch or not.
const MaxUploadSize = 500 << 20 // 500MB

const (
	videoBucket     = miniostorage.VideoBucket
	thumbnailBucket = miniostorage.ThumbnailBucket
)

// Processor runs the recognition pipeline.
type Processor interface {
	ProcessUpload(ctx context.Context, up pipeline.Upload) (pipeline.Result, error)
	ProcessBatch(ctx context.Context, uploads []pipeline.Upload) []pipeline.Result
}

// FeedbackService records human corrections.
type FeedbackService interface {
	Submit(ctx context.Context, videoID uuid.UUID, correctAction, comment string) (*models.Feedback, error)
}

// VideoReader serves the read endpoints.
type VideoReader interface {
	GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error)
	ListVideos(ctx context.Context) ([]models.Video, error)
}

// Cache stores rendered video responses. Optional.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Linker produces presigned download URLs for archived objects. Optional.
type Linker interface {
	GetFileLink(ctx context.Context, bucketName, objectName string, expires time.Duration) (string, error)
}

type Handler struct {
	processor Processor
	feedback  FeedbackService
	videos    VideoReader
	cache     Cache
	linker    Linker
	health    HealthCheckers

	cacheTTL      time.Duration
	presignExpiry time.Duration
}

func NewHandler(processor Processor, feedback FeedbackService, videos VideoReader, cache Cache, linker Linker, health HealthCheckers, cacheTTL, presignExpiry time.Duration) *Handler {
	return &Handler{
		processor:     processor,
		feedback:      feedback,
		videos:        videos,
		cache:         cache,
		linker:        linker,
		health:        health,
		cacheTTL:      cacheTTL,
		presignExpiry: presignExpiry,
	}
}

// Register wires all routes onto the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/recognize", h.RecognizeVideo)
	r.POST("/recognize-batch", h.RecognizeBatch)
	r.POST("/feedback", h.SubmitFeedback)
	r.GET("/videos", h.ListVideos)
	r.GET("/videos/:id", h.GetVideo)
	r.GET("/health", h.HealthCheck)
}
