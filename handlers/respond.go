package handlers

import (
	"errors"
	"net/http"

	"fixitquick/models"
	"fixitquick/services/dispatch"
	"fixitquick/utils"

	"github.com/gin-gonic/gin"
)

// respondDispatchError translates the engine's error taxonomy into HTTP
// responses. Unknown errors surface as 500 without leaking internals.
func respondDispatchError(c *gin.Context, err error) {
	var status int
	var message string
	switch {
	case errors.Is(err, dispatch.ErrBookingNotFound):
		status, message = http.StatusNotFound, "Booking not found"
	case errors.Is(err, dispatch.ErrOfferNotFound):
		status, message = http.StatusNotFound, "Offer not found"
	case errors.Is(err, dispatch.ErrBookingTerminal):
		status, message = http.StatusConflict, "Booking is already in a terminal status"
	case errors.Is(err, dispatch.ErrStaleTransition):
		status, message = http.StatusConflict, "Booking status changed; refresh and retry"
	case errors.Is(err, dispatch.ErrNotAssignedProvider):
		status, message = http.StatusForbidden, "Booking is not assigned to you"
	case errors.Is(err, dispatch.ErrStoreUnavailable):
		status, message = http.StatusServiceUnavailable, "Service temporarily unavailable, retry shortly"
	default:
		status, message = http.StatusInternalServerError, "Internal server error"
	}
	utils.JSONError(c, status, message, "")
}

// outcomeStatus maps an offer resolution outcome to its HTTP status. A win
// is the only 200; the rest tell the provider why the offer is gone.
func outcomeStatus(outcome models.OfferOutcome) int {
	switch outcome {
	case models.OutcomeWon, models.OutcomeDeclined:
		return http.StatusOK
	case models.OutcomeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusConflict
	}
}
