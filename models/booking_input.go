package models

// BookingInput is the intake payload for a new service request.
type BookingInput struct {
	CustomerID  string   `json:"customerId" binding:"required"`
	ServiceType string   `json:"serviceType" binding:"required"`
	Urgency     Urgency  `json:"urgency"`
	Location    Location `json:"location" binding:"required"`
	TotalAmount float64  `json:"totalAmount"`
}
