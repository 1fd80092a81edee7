package models

// LocationQuery is a single element of the ingest request body. The place name is
// carried in the "country" field for compatibility with existing callers.
type LocationQuery struct {
	Country string `json:"country" binding:"required"`
}

type GeocodedLocation struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
