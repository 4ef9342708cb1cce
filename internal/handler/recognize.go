package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"video-recognizer/internal/pipeline"
)

// RecognizeVideo accepts one file under the "file" form field, runs the full
// pipeline synchronously and returns the terminal result. Domain failures
// come back as a structured error result, not as a transport failure.
func (h *Handler) RecognizeVideo(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing video file in request"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}
	defer file.Close()

	result, err := h.processor.ProcessUpload(c.Request.Context(), pipeline.Upload{
		Filename: fileHeader.Filename,
		Data:     file,
	})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RecognizeBatch accepts N files under the "files" form field and returns
// one result per file, in input order. A failed item never aborts the rest.
func (h *Handler) RecognizeBatch(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no video files in request"})
		return
	}

	uploads := make([]pipeline.Upload, 0, len(fileHeaders))
	opened := make([]multipart.File, 0, len(fileHeaders))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file " + fh.Filename})
			return
		}
		opened = append(opened, f)
		uploads = append(uploads, pipeline.Upload{Filename: fh.Filename, Data: f})
	}

	results := h.processor.ProcessBatch(c.Request.Context(), uploads)
	c.JSON(http.StatusOK, results)
}
