package handlers

import (
	"net/http"
	"time"

	"fixitquick/models"
	"fixitquick/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const providerTokenTTL = 30 * 24 * time.Hour

// RegisterProviderHandler creates a provider and issues its bearer token.
func (hb *HandlerBundle) RegisterProviderHandler(c *gin.Context) {
	logger := getLogger(c)

	var input struct {
		ProviderName string          `json:"providerName" binding:"required"`
		Email        string          `json:"email" binding:"required,email"`
		PhoneNumber  string          `json:"phoneNumber"`
		ServiceTypes []string        `json:"serviceTypes" binding:"required,min=1"`
		LocationGeo  models.GeoPoint `json:"locationGeo" binding:"required"`
		MaxJobs      int             `json:"maxJobs"`
		FCMToken     string          `json:"fcmToken"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	providerID := uuid.New().String()
	token, err := utils.GenerateToken(providerID, providerTokenTTL)
	if err != nil {
		logger.Error("Token generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	maxJobs := input.MaxJobs
	if maxJobs <= 0 {
		maxJobs = 1
	}
	provider := models.Provider{
		ID: providerID,
		Profile: models.ProviderProfile{
			ProviderName: input.ProviderName,
			Email:        input.Email,
			PhoneNumber:  input.PhoneNumber,
			LocationGeo:  input.LocationGeo,
		},
		ServiceTypes: input.ServiceTypes,
		Availability: models.Availability{Online: false, MaxJobs: maxJobs},
		Security: models.ProviderSecurity{
			TokenHash: utils.HashToken(token),
			FCMToken:  input.FCMToken,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := hb.ProviderRepo.Create(c.Request.Context(), &provider); err != nil {
		logger.Error("Failed to create provider", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to create provider"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"provider": provider, "token": token})
}

// SetAvailabilityHandler toggles the authenticated provider online/offline.
// Only online providers are eligible for new offers.
func (hb *HandlerBundle) SetAvailabilityHandler(c *gin.Context) {
	logger := getLogger(c)
	providerID := c.GetString("providerID")

	var input struct {
		Online *bool `json:"online" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	if err := hb.ProviderRepo.SetOnline(c.Request.Context(), providerID, *input.Online); err != nil {
		logger.Error("Failed to set availability", zap.String("providerID", providerID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to update availability"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"online": *input.Online})
}

// GetProviderHandler returns a provider's public details.
func (hb *HandlerBundle) GetProviderHandler(c *gin.Context) {
	logger := getLogger(c)
	id := c.Param("id")

	provider, err := hb.ProviderRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		logger.Warn("Provider not found", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		return
	}
	c.JSON(http.StatusOK, provider)
}
