package api

import (
	"errors"
	"net/http"

	"fleet-match/internal/usecase/commands"
	"fleet-match/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondCommandError maps the business taxonomy onto HTTP statuses. Race
// losses (AlreadyMatched) and state conflicts are 409; lapsed deadlines are
// 410 so callers can distinguish "never again" from "someone else won".
func respondCommandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, commands.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed"})
	case errors.Is(err, commands.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "Caller does not own this resource"})
	case errors.Is(err, commands.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
	case errors.Is(err, commands.ErrOfferNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Offer not found"})
	case errors.Is(err, commands.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.Is(err, commands.ErrAlreadyMatched):
		c.JSON(http.StatusConflict, gin.H{"error": "Request already matched"})
	case errors.Is(err, commands.ErrDuplicateOffer):
		c.JSON(http.StatusConflict, gin.H{"error": "Provider already holds a pending offer on this request"})
	case errors.Is(err, commands.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "Operation not allowed in current state"})
	case errors.Is(err, commands.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Offer or request has expired"})
	case errors.Is(err, commands.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func respondQueryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, queries.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
	case errors.Is(err, queries.ErrOfferNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Offer not found"})
	case errors.Is(err, queries.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	parsed, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format"})
		return uuid.Nil, false
	}
	return parsed, true
}
