package models

// GeoPoint represents a GeoJSON Point.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [longitude, latitude]
}

// Location is a requested service location: coordinates plus what the
// customer typed in.
type Location struct {
	Geo          GeoPoint `bson:"geo" json:"geo"`
	Address      string   `bson:"address" json:"address"`
	Instructions string   `bson:"instructions,omitempty" json:"instructions,omitempty"`
}
