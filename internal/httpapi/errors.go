package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ptdat/roomledger/internal/allocation"
	"github.com/ptdat/roomledger/internal/auth"
	"github.com/ptdat/roomledger/internal/service"
	"github.com/ptdat/roomledger/internal/storage"
)

// writeError maps application errors to HTTP status codes. Anything not
// recognized is a 500 with a generic message so internals never leak.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	case errors.Is(err, service.ErrNotRoomMember),
		errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrRoomFull),
		errors.Is(err, service.ErrAlreadySettled),
		errors.Is(err, service.ErrNotPayable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, auth.ErrEmailExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrEmptyApplyTo),
		errors.Is(err, service.ErrNotApplicable),
		errors.Is(err, service.ErrInvalidDay),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, allocation.ErrNoMembers),
		errors.Is(err, allocation.ErrMonthRequired),
		errors.Is(err, allocation.ErrNoSplitEntry):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
