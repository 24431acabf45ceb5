package task

import (
	"time"

	"courierdesk/internal/core/domain/model/kernel"
)

// LocationSample is one observed courier position.
type LocationSample struct {
	point kernel.GeoPoint
	at    time.Time
}

func NewLocationSample(point kernel.GeoPoint, at time.Time) (LocationSample, error) {
	if err := point.Validate(); err != nil {
		return LocationSample{}, err
	}
	return LocationSample{point: point, at: at.UTC()}, nil
}

func (s LocationSample) Point() kernel.GeoPoint {
	return s.point
}

func (s LocationSample) At() time.Time {
	return s.at
}
