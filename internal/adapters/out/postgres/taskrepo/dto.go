// Package taskrepo maps Task aggregates to the tasks table.
//
// The courier, the current location and the rating are flattened into
// nullable columns so that list queries can filter on them directly.
package taskrepo

import (
	"time"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"

	"github.com/google/uuid"
)

// TaskDTO is the database row of a task. Version backs the optimistic
// concurrency checks of Update and Delete.
type TaskDTO struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Status        string    `gorm:"type:varchar(16);not null;index"`
	CustomerID    string    `gorm:"not null;index"`
	CustomerName  string    `gorm:"not null"`
	CustomerEmail string
	CourierID     *string `gorm:"index"`
	CourierName   *string
	CourierEmail  *string
	Destination   PointDTO `gorm:"embedded;embeddedPrefix:destination_"`
	Address       string   `gorm:"type:varchar(500);not null"`
	Notes         string   `gorm:"type:varchar(1000)"`
	LocationLat   *float64
	LocationLng   *float64
	LocationAt    *time.Time
	CreatedAt     time.Time  `gorm:"not null;index"`
	DeliveredAt   *time.Time `gorm:"index"`
	RatingScore   *int       `gorm:"type:smallint"`
	RatedAt       *time.Time
	Version       int64 `gorm:"not null"`
}

func (TaskDTO) TableName() string {
	return "tasks"
}

// PointDTO is an embedded latitude/longitude pair.
type PointDTO struct {
	Lat float64 `gorm:"not null"`
	Lng float64 `gorm:"not null"`
}

func fromDomain(t *task.Task) TaskDTO {
	s := t.Snapshot()
	dto := TaskDTO{
		ID:            s.ID.Bytes(),
		Status:        s.Status.String(),
		CustomerID:    s.Customer.ID().String(),
		CustomerName:  s.Customer.Name(),
		CustomerEmail: s.Customer.Email(),
		Destination:   PointDTO{Lat: s.Destination.Lat(), Lng: s.Destination.Lng()},
		Address:       s.Address,
		Notes:         s.Notes,
		CreatedAt:     s.CreatedAt,
		DeliveredAt:   s.DeliveredAt,
		Version:       s.Version,
	}

	if c := s.Courier; c != nil {
		id, name, email := c.ID().String(), c.Name(), c.Email()
		dto.CourierID, dto.CourierName, dto.CourierEmail = &id, &name, &email
	}
	if loc := s.CurrentLocation; loc != nil {
		lat, lng, at := loc.Point().Lat(), loc.Point().Lng(), loc.At()
		dto.LocationLat, dto.LocationLng, dto.LocationAt = &lat, &lng, &at
	}
	if r := s.Rating; r != nil {
		score, at := r.Score(), r.RatedAt()
		dto.RatingScore, dto.RatedAt = &score, &at
	}

	return dto
}

func toDomain(dto TaskDTO) (*task.Task, error) {
	id, err := kernel.UUIDFromString(dto.ID.String())
	if err != nil {
		return nil, err
	}
	status, err := task.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	customer, err := task.NewParticipant(kernel.UserID(dto.CustomerID), dto.CustomerName, dto.CustomerEmail)
	if err != nil {
		return nil, err
	}
	destination, err := kernel.NewGeoPoint(dto.Destination.Lat, dto.Destination.Lng)
	if err != nil {
		return nil, err
	}

	state := task.State{
		ID:          id,
		Status:      status,
		Customer:    customer,
		Destination: destination,
		Address:     dto.Address,
		Notes:       dto.Notes,
		CreatedAt:   dto.CreatedAt,
		DeliveredAt: dto.DeliveredAt,
		Version:     dto.Version,
	}

	if dto.CourierID != nil {
		courier, courierErr := task.NewParticipant(kernel.UserID(*dto.CourierID), deref(dto.CourierName), deref(dto.CourierEmail))
		if courierErr != nil {
			return nil, courierErr
		}
		state.Courier = &courier
	}

	if dto.LocationLat != nil && dto.LocationLng != nil && dto.LocationAt != nil {
		point, pointErr := kernel.NewGeoPoint(*dto.LocationLat, *dto.LocationLng)
		if pointErr != nil {
			return nil, pointErr
		}
		sample, sampleErr := task.NewLocationSample(point, *dto.LocationAt)
		if sampleErr != nil {
			return nil, sampleErr
		}
		state.CurrentLocation = &sample
	}

	if dto.RatingScore != nil {
		var ratedAt time.Time
		if dto.RatedAt != nil {
			ratedAt = *dto.RatedAt
		}
		rating, ratingErr := task.NewRating(*dto.RatingScore, ratedAt)
		if ratingErr != nil {
			return nil, ratingErr
		}
		state.Rating = &rating
	}

	return task.RestoreTask(state)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
