package handlers

import (
	"net/http"
	"time"

	"fixitquick/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBookingHandler takes in a service request, persists it and runs the
// first dispatch round before replying.
func (hb *HandlerBundle) CreateBookingHandler(c *gin.Context) {
	logger := getLogger(c)

	var input models.BookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if input.Urgency == "" {
		input.Urgency = models.UrgencyNormal
	}
	if !input.Urgency.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid urgency: " + string(input.Urgency)})
		return
	}

	now := time.Now().UTC()
	booking := models.Booking{
		ID:          uuid.New().String(),
		CustomerID:  input.CustomerID,
		ServiceType: input.ServiceType,
		Urgency:     input.Urgency,
		Location:    input.Location,
		TotalAmount: input.TotalAmount,
		Status:      models.BookingAwaitingDispatch,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := hb.Repo.CreateBooking(c.Request.Context(), &booking); err != nil {
		logger.Error("Failed to create booking", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to create booking"})
		return
	}

	result, err := hb.Coordinator.Dispatch(c.Request.Context(), booking.ID)
	if err != nil {
		// The booking exists; a re-dispatch call can pick it up later.
		logger.Error("Initial dispatch failed", zap.String("bookingID", booking.ID), zap.Error(err))
		c.JSON(http.StatusCreated, gin.H{
			"booking":  booking,
			"dispatch": nil,
			"warning":  "dispatch deferred, retry via /dispatch",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"booking": booking, "dispatch": result})
}

// RedispatchBookingHandler re-runs dispatch for a booking whose initial
// fan-out failed or that sits without live offers.
func (hb *HandlerBundle) RedispatchBookingHandler(c *gin.Context) {
	logger := getLogger(c)
	bookingID := c.Param("id")

	result, err := hb.Coordinator.Dispatch(c.Request.Context(), bookingID)
	if err != nil {
		logger.Error("Re-dispatch failed", zap.String("bookingID", bookingID), zap.Error(err))
		respondDispatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dispatch": result})
}

// GetBookingHandler returns a booking together with its offer history.
func (hb *HandlerBundle) GetBookingHandler(c *gin.Context) {
	logger := getLogger(c)
	bookingID := c.Param("id")

	booking, err := hb.Repo.GetBookingByID(c.Request.Context(), bookingID)
	if err != nil {
		logger.Warn("Booking lookup failed", zap.String("bookingID", bookingID), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}
	offers, err := hb.Repo.ListOffersByBooking(c.Request.Context(), bookingID)
	if err != nil {
		logger.Error("Offer listing failed", zap.String("bookingID", bookingID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to list offers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking, "offers": offers})
}

// CancelBookingHandler cancels a booking on the customer's behalf and
// retracts any outstanding offers.
func (hb *HandlerBundle) CancelBookingHandler(c *gin.Context) {
	logger := getLogger(c)
	bookingID := c.Param("id")

	if err := hb.Coordinator.CancelBooking(c.Request.Context(), bookingID); err != nil {
		logger.Warn("Cancel failed", zap.String("bookingID", bookingID), zap.Error(err))
		respondDispatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(models.BookingCancelled)})
}

// StartJobHandler moves an assigned booking to in_progress. Provider only.
func (hb *HandlerBundle) StartJobHandler(c *gin.Context) {
	logger := getLogger(c)
	bookingID := c.Param("id")
	providerID := c.GetString("providerID")

	if err := hb.Coordinator.StartJob(c.Request.Context(), bookingID, providerID); err != nil {
		logger.Warn("Start job failed", zap.String("bookingID", bookingID), zap.Error(err))
		respondDispatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(models.BookingInProgress)})
}

// CompleteJobHandler moves an in_progress booking to completed and updates
// the provider's counters.
func (hb *HandlerBundle) CompleteJobHandler(c *gin.Context) {
	logger := getLogger(c)
	bookingID := c.Param("id")
	providerID := c.GetString("providerID")

	if err := hb.Coordinator.CompleteJob(c.Request.Context(), bookingID, providerID); err != nil {
		logger.Warn("Complete job failed", zap.String("bookingID", bookingID), zap.Error(err))
		respondDispatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(models.BookingCompleted)})
}
