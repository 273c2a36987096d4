package models

import "time"

// Availability is the online/offline flag plus capacity limits for a
// provider. The dispatch coordinator reads it but never writes it; it can
// change between candidate selection and offer delivery.
type Availability struct {
	Online     bool `bson:"online" json:"online"`
	MaxJobs    int  `bson:"maxJobs" json:"maxJobs"`
	ActiveJobs int  `bson:"activeJobs" json:"activeJobs"`
}

// AtCapacity reports whether the provider can take another job.
func (a Availability) AtCapacity() bool {
	return a.MaxJobs > 0 && a.ActiveJobs >= a.MaxJobs
}

type ProviderProfile struct {
	ProviderName string   `bson:"providerName" json:"providerName,omitempty"`
	Email        string   `bson:"email" json:"email,omitempty"`
	PhoneNumber  string   `bson:"phoneNumber" json:"phoneNumber,omitempty"`
	Verified     bool     `bson:"verified" json:"verified,omitempty"`
	Rating       float64  `bson:"rating" json:"rating,omitempty"`
	LocationGeo  GeoPoint `bson:"locationGeo" json:"locationGeo"`
}

type ProviderSecurity struct {
	TokenHash string `bson:"tokenHash" json:"-"`
	FCMToken  string `bson:"fcmToken" json:"-"`
}

// Provider is a service provider eligible to receive job offers.
type Provider struct {
	ID            string           `bson:"id" json:"id"`
	Profile       ProviderProfile  `bson:"profile" json:"profile"`
	ServiceTypes  []string         `bson:"serviceTypes" json:"serviceTypes"`
	Availability  Availability     `bson:"availability" json:"availability"`
	Security      ProviderSecurity `bson:"security" json:"-"`
	CompletedJobs int              `bson:"completedJobs" json:"completedJobs"`
	CreatedAt     time.Time        `bson:"createdAt" json:"createdAt"`
}
