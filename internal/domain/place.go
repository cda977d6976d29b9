package domain

import "context"

// Place is a human-readable description of a coordinate.
type Place struct {
	Name             string  `json:"name"`
	FormattedAddress string  `json:"formatted_address"`
	Lat              float64 `json:"lat"`
	Lon              float64 `json:"lon"`
	Relevance        float64 `json:"relevance"`
}

// Geocoder resolves coordinates to a place. An empty Place with a nil
// error means nothing was found.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error)
}
