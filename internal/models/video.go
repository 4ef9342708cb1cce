package models

import (
	"time"

	"github.com/google/uuid"
)

type VideoStatus string

const (
	StatusReceived   VideoStatus = "received"
	StatusProcessing VideoStatus = "processing"
	StatusCompleted  VideoStatus = "completed"
	StatusError      VideoStatus = "error"
)

// Terminal reports whether no further status transitions are allowed.
func (s VideoStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// CanTransitionTo reports whether the received→processing→{completed,error}
// state machine permits moving from s to next.
func (s VideoStatus) CanTransitionTo(next VideoStatus) bool {
	switch s {
	case StatusReceived:
		return next == StatusProcessing || next == StatusError
	case StatusProcessing:
		return next == StatusCompleted || next == StatusError
	default:
		return false
	}
}

// MediaInfo describes a video file's stream properties. It is persisted as a
// JSON document on the video record, once for the source file and once for
// the canonical (normalized) file.
type MediaInfo struct {
	FPS         float64 `json:"fps"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Duration    float64 `json:"duration,omitempty"`
	Format      string  `json:"format"`
	Codec       string  `json:"codec,omitempty"`
	AspectRatio float64 `json:"aspect_ratio,omitempty"`
}

// Video is one uploaded file's lifecycle record. Action/Confidence are set
// only on completed videos, Error only on failed ones; the pipeline never
// sets both. The feedback mirror fields are written exclusively by the
// feedback service and are independent of Status.
type Video struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	Filename        string         `json:"filename" db:"filename"`
	Status          VideoStatus    `json:"status" db:"status"`
	Action          string         `json:"action,omitempty" db:"action"`
	Confidence      *float64       `json:"confidence,omitempty" db:"confidence"`
	ActionDetails   map[string]any `json:"action_details,omitempty" db:"action_details"`
	OriginalInfo    *MediaInfo     `json:"original_info,omitempty" db:"original_info"`
	NormalizedInfo  *MediaInfo     `json:"normalized_info,omitempty" db:"normalized_info"`
	Error           string         `json:"error,omitempty" db:"error"`
	HasFeedback     bool           `json:"has_feedback" db:"has_feedback"`
	FeedbackAction  string         `json:"feedback_action,omitempty" db:"feedback_action"`
	FeedbackComment string         `json:"feedback_comment,omitempty" db:"feedback_comment"`
	ArchiveObject   string         `json:"archive_object,omitempty" db:"archive_object"`
	ThumbnailObject string         `json:"thumbnail_object,omitempty" db:"thumbnail_object"`
	UploadTime      time.Time      `json:"upload_time" db:"upload_time"`
	ProcessedTime   *time.Time     `json:"processed_time,omitempty" db:"processed_time"`
}

// Feedback is an append-only human correction against one video. Filename
// and OriginalAction are snapshots taken at submission time, not live
// references.
type Feedback struct {
	ID             uuid.UUID `json:"id" db:"id"`
	VideoID        uuid.UUID `json:"video_id" db:"video_id"`
	Filename       string    `json:"filename" db:"filename"`
	OriginalAction string    `json:"original_action,omitempty" db:"original_action"`
	CorrectAction  string    `json:"correct_action" db:"correct_action"`
	Comment        string    `json:"comment,omitempty" db:"comment"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
