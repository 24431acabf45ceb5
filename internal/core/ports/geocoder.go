package ports

import (
	"context"

	"courierdesk/internal/core/domain/model/kernel"
)

// Geocoder resolves a coordinate to a human-readable address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, point kernel.GeoPoint) (string, error)
}
