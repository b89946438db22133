// Package middleware provides Gin middleware for the LOGODETH gateway:
// request IDs, request logging, and admin-key authentication.
package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID assigns each request a UUID, exposed to handlers via the
// context and to clients via the X-Request-ID response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// Logging logs method, path, status, latency and client IP per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		switch {
		case status >= 500:
			log.Printf("[ERROR] %s %s | %d | %v | %s | errors: %s",
				c.Request.Method, path, status, latency, c.ClientIP(),
				c.Errors.ByType(gin.ErrorTypePrivate).String())
		case status >= 400:
			log.Printf("[WARN]  %s %s | %d | %v | %s",
				c.Request.Method, path, status, latency, c.ClientIP())
		default:
			log.Printf("[INFO]  %s %s | %d | %v | %s",
				c.Request.Method, path, status, latency, c.ClientIP())
		}
	}
}

// AdminAuth validates the X-Admin-Key header (or a Bearer token) against
// the configured admin key. Routes behind it are disabled fail-secure
// when no key is configured.
func AdminAuth(expectedKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expectedKey == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "admin_disabled",
				"message": "Admin API disabled: LOGODETH_ADMIN_API_KEY not configured.",
			})
			return
		}

		key := c.GetHeader("X-Admin-Key")
		if key == "" {
			key = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if key != expectedKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid or missing admin API key.",
			})
			return
		}

		c.Next()
	}
}
