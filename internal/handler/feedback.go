package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"video-recognizer/internal/feedback"
)

type feedbackRequest struct {
	VideoID       string `json:"video_id" binding:"required"`
	CorrectAction string `json:"correct_action" binding:"required"`
	Comment       string `json:"comment"`
}

// SubmitFeedback records a human correction against a processed video.
func (h *Handler) SubmitFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "video_id and correct_action are required"})
		return
	}

	videoID, err := uuid.Parse(req.VideoID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video ID format"})
		return
	}

	record, err := h.feedback.Submit(c.Request.Context(), videoID, req.CorrectAction, req.Comment)
	if errors.Is(err, feedback.ErrVideoNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Feedback submitted successfully",
		"feedback_id": record.ID.String(),
	})
}
