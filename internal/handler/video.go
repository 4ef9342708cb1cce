package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"video-recognizer/internal/models"
	"video-recognizer/internal/store"
)

// VideoResponse is a video's persisted fields plus presigned download URLs
// for its archived objects. The URLs are regenerated per request; they are
// never cached.
type VideoResponse struct {
	models.Video
	DownloadURL  string `json:"download_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// ListVideos returns every video record, most recently uploaded first.
func (h *Handler) ListVideos(c *gin.Context) {
	videos, err := h.videos.ListVideos(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, videos)
}

// GetVideo returns one video record with download links, serving from the
// cache when possible.
func (h *Handler) GetVideo(c *gin.Context) {
	videoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid video ID format"})
		return
	}

	ctx := c.Request.Context()
	cacheKey := store.VideoCacheKey(videoID)

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, cacheKey); err == nil {
			var response VideoResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				h.attachLinks(c, &response)
				c.JSON(http.StatusOK, response)
				return
			}
		}
	}

	video, err := h.videos.GetVideo(ctx, videoID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	response := VideoResponse{Video: *video}

	if h.cache != nil {
		if body, err := json.Marshal(response); err == nil {
			_ = h.cache.Set(ctx, cacheKey, string(body), h.cacheTTL)
		}
	}

	h.attachLinks(c, &response)
	c.JSON(http.StatusOK, response)
}

func (h *Handler) attachLinks(c *gin.Context, response *VideoResponse) {
	if h.linker == nil {
		return
	}
	ctx := c.Request.Context()
	if response.ArchiveObject != "" {
		if url, err := h.linker.GetFileLink(ctx, videoBucket, response.ArchiveObject, h.presignExpiry); err == nil {
			response.DownloadURL = url
		}
	}
	if response.ThumbnailObject != "" {
		if url, err := h.linker.GetFileLink(ctx, thumbnailBucket, response.ThumbnailObject, h.presignExpiry); err == nil {
			response.ThumbnailURL = url
		}
	}
}
