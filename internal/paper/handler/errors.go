package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/papershelf/papershelf/backend/go-services/internal/paper"
	"github.com/papershelf/papershelf/backend/go-services/pkg/logger"
)

// statusFor maps a service error to its HTTP status and client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, paper.ErrMissingRequiredField), errors.Is(err, paper.ErrInvalidFieldFormat):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, paper.ErrNotAuthorized):
		return http.StatusUnauthorized, "not authorized to modify this paper"
	case errors.Is(err, paper.ErrNotAuthor):
		return http.StatusForbidden, "only the note's author can delete it"
	case errors.Is(err, paper.ErrNotFound):
		return http.StatusNotFound, "paper not found"
	case errors.Is(err, paper.ErrNoteNotFound):
		return http.StatusNotFound, "note not found"
	}
	return http.StatusInternalServerError, "internal server error"
}

func writeError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
