package handlers

import (
	"errors"
	"net/http"

	dom "taskapi/internal/domain"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}

// respondError maps an error kind onto a status. The error is attached to the
// gin context so the request logger can report it.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, dom.ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, dom.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	case errors.Is(err, dom.ErrStoreUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: "store unavailable"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
