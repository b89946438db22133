// Package api implements the HTTP endpoints of the LOGODETH gateway.
// It owns upload validation and the mapping of pipeline errors to HTTP
// status codes; all recognition logic lives behind the Service interface.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/4ier/logodeth/internal/recognition"
	"github.com/4ier/logodeth/pkg/models"
)

// Service is the recognition pipeline as consumed by the transport layer.
type Service interface {
	Identify(ctx context.Context, data []byte, filename, clientID string) (*models.RecognitionResult, error)
	LookupCached(ctx context.Context, fingerprint string) (*models.RecognitionResult, bool)
	UsageStats(identifier string) models.UsageStats
	ClearCache(ctx context.Context) int
	CacheStats(ctx context.Context) models.CacheStats
	CacheHealthy(ctx context.Context) bool
	Providers() []models.ProviderInfo
}

// allowedMIMETypes are the sniffed content types accepted for upload.
var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Handlers provides the REST endpoint handlers.
type Handlers struct {
	svc         Service
	maxFileSize int64
	allowedExts map[string]bool
}

// NewHandlers creates a Handlers instance.
func NewHandlers(svc Service, maxFileSize int64, allowedExtensions []string) *Handlers {
	exts := make(map[string]bool, len(allowedExtensions))
	for _, e := range allowedExtensions {
		exts[strings.ToLower(e)] = true
	}
	return &Handlers{svc: svc, maxFileSize: maxFileSize, allowedExts: exts}
}

// Recognize handles POST /api/v1/recognize: a multipart upload with the
// logo image under the "file" field.
func (h *Handlers) Recognize(c *gin.Context) {
	start := time.Now()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_file",
			"message": "Upload the logo image in the 'file' form field.",
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !h.allowedExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_file_type",
			"message": fmt.Sprintf("File type %q not allowed.", ext),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "unreadable_file",
			"message": "Could not read the uploaded file.",
		})
		return
	}
	defer file.Close()

	// Read limit+1 so "exactly at limit" and "over limit" are distinguishable.
	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "unreadable_file",
			"message": "Could not read the uploaded file.",
		})
		return
	}
	if int64(len(data)) > h.maxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":   "file_too_large",
			"message": fmt.Sprintf("File exceeds the maximum allowed size of %dMB.", h.maxFileSize/1024/1024),
		})
		return
	}

	if mime := http.DetectContentType(data); !allowedMIMETypes[mime] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_mime_type",
			"message": fmt.Sprintf("Invalid file content detected: %s.", mime),
		})
		return
	}

	result, err := h.svc.Identify(c.Request.Context(), data, fileHeader.Filename, c.ClientIP())
	if err != nil {
		h.writeIdentifyError(c, err)
		return
	}

	result.ProcessingTime = time.Since(start).Seconds()
	c.JSON(http.StatusOK, result)
}

// writeIdentifyError maps pipeline errors to HTTP responses. Only the
// taxonomy errors cross this boundary with specific codes; everything
// else is a generic recognition failure.
func (h *Handlers) writeIdentifyError(c *gin.Context, err error) {
	var throttled *recognition.ThrottledError
	if errors.As(err, &throttled) {
		c.Header("Retry-After", strconv.Itoa(throttled.RetryAfter))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate_limit_exceeded",
			"message":     "Too many requests. Please slow down.",
			"retry_after": throttled.RetryAfter,
		})
		return
	}

	var budget *recognition.BudgetExceededError
	if errors.As(err, &budget) {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "budget_exceeded",
			"message": budget.Reason,
		})
		return
	}

	if errors.Is(err, recognition.ErrNoProviderAvailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "no_provider_available",
			"message": "No AI provider is configured.",
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "recognition_failed",
		"message": "All AI services failed to process the image.",
	})
}

// CachedResult handles GET /api/v1/recognize/:hash.
func (h *Handlers) CachedResult(c *gin.Context) {
	hash := c.Param("hash")

	result, ok := h.svc.LookupCached(c.Request.Context(), hash)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "No cached result found.",
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Usage handles GET /api/v1/usage. The identifier defaults to the caller's
// IP, matching the identifier used for throttling and budgets.
func (h *Handlers) Usage(c *gin.Context) {
	identifier := c.DefaultQuery("identifier", c.ClientIP())
	c.JSON(http.StatusOK, h.svc.UsageStats(identifier))
}

// ClearCache handles DELETE /api/v1/cache (admin).
func (h *Handlers) ClearCache(c *gin.Context) {
	cleared := h.svc.ClearCache(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"cleared": cleared})
}

// CacheStats handles GET /api/v1/cache/stats (admin).
func (h *Handlers) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.CacheStats(c.Request.Context()))
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "logodeth",
		"version": "2.0.0",
		"checks": gin.H{
			"redis":     h.svc.CacheHealthy(c.Request.Context()),
			"providers": h.svc.Providers(),
		},
	})
}
