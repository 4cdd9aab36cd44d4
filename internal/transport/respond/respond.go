// Package respond maps domain errors onto HTTP status codes and the
// {"error", "code"} body every handler returns on failure.
package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainproject "github.com/alanyang/project-registry/internal/domain/project"
)

// Error codes carried in the "code" field.
const (
	CodeInvalidPayload   = "invalid_payload"
	CodeInvalidEmail     = "invalid_email"
	CodeNotFound         = "project_not_found"
	CodeSuspended        = "project_suspended"
	CodeAlreadySuspended = "already_suspended"
	CodeInactive         = "inactive_project"
	CodeInternal         = "internal_error"
)

// Classify returns the HTTP status and error code for err.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, domainproject.ErrInvalidPayload):
		return http.StatusBadRequest, CodeInvalidPayload
	case errors.Is(err, domainproject.ErrInvalidEmail):
		return http.StatusBadRequest, CodeInvalidEmail
	case errors.Is(err, domainproject.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, domainproject.ErrAlreadySuspended):
		return http.StatusConflict, CodeAlreadySuspended
	case errors.Is(err, domainproject.ErrSuspended):
		return http.StatusConflict, CodeSuspended
	case errors.Is(err, domainproject.ErrInactive):
		return http.StatusConflict, CodeInactive
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// Error writes err with the status Classify picks.
func Error(c *gin.Context, err error) {
	status, code := Classify(err)
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

// BadRequest reports a malformed request that never reached the service.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": CodeInvalidPayload})
}
