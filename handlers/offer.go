package handlers

import (
	"net/http"

	"fixitquick/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// outcomeMessage gives providers a human-readable reason alongside the
// machine outcome code.
var outcomeMessage = map[models.OfferOutcome]string{
	models.OutcomeWon:             "Offer accepted, the job is yours",
	models.OutcomeLost:            "Another provider accepted this job first",
	models.OutcomeExpired:         "The offer window has elapsed",
	models.OutcomeAlreadyResolved: "The offer is no longer open",
	models.OutcomeNotFound:        "Offer not found",
	models.OutcomeDeclined:        "Offer declined",
}

// AcceptOfferHandler lets the authenticated provider claim an offer. Races
// come back as outcome codes, not errors.
func (hb *HandlerBundle) AcceptOfferHandler(c *gin.Context) {
	logger := getLogger(c)
	offerID := c.Param("id")
	providerID := c.GetString("providerID")

	outcome, err := hb.Coordinator.Accept(c.Request.Context(), offerID, providerID)
	if err != nil {
		logger.Error("Accept failed", zap.String("offerID", offerID), zap.Error(err))
		respondDispatchError(c, err)
		return
	}

	body := gin.H{"outcome": string(outcome), "message": outcomeMessage[outcome]}
	if outcome == models.OutcomeWon {
		if offer, err := hb.Repo.GetOfferByID(c.Request.Context(), offerID); err == nil {
			body["bookingId"] = offer.BookingID
		}
	}
	c.JSON(outcomeStatus(outcome), body)
}

// DeclineOfferHandler records a decline and moves dispatch along to the
// next candidate.
func (hb *HandlerBundle) DeclineOfferHandler(c *gin.Context) {
	logger := getLogger(c)
	offerID := c.Param("id")
	providerID := c.GetString("providerID")

	var input struct {
		Reason string `json:"reason"`
	}
	// The body is optional; a bare decline is fine.
	_ = c.ShouldBindJSON(&input)

	outcome, err := hb.Coordinator.Decline(c.Request.Context(), offerID, providerID, input.Reason)
	if err != nil {
		logger.Error("Decline failed", zap.String("offerID", offerID), zap.Error(err))
		respondDispatchError(c, err)
		return
	}
	c.JSON(outcomeStatus(outcome), gin.H{"outcome": string(outcome), "message": outcomeMessage[outcome]})
}

// ListMyOffersHandler returns the authenticated provider's offers, pending
// ones by default. Dashboard poll endpoint.
func (hb *HandlerBundle) ListMyOffersHandler(c *gin.Context) {
	logger := getLogger(c)
	providerID := c.GetString("providerID")

	status := models.OfferSent
	if q := c.Query("status"); q != "" {
		status = models.OfferStatus(q)
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status: " + q})
			return
		}
	}

	offers, err := hb.Repo.ListOffersByProvider(c.Request.Context(), providerID, status)
	if err != nil {
		logger.Error("Offer listing failed", zap.String("providerID", providerID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to list offers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}
