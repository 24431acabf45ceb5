// Package queries contains the read side of the application. Queries return
// plain read models that adapters serialize without touching the domain
// aggregates.
package queries

import (
	"time"

	"courierdesk/internal/core/domain/model/chat"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/domain/model/user"
)

// PointView is a coordinate pair in degrees.
type PointView struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ParticipantView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type LocationView struct {
	PointView
	At time.Time `json:"at"`
}

type RatingView struct {
	Score   int       `json:"score"`
	RatedAt time.Time `json:"ratedAt"`
}

// TaskView is the read model of a task as seen by its participants and by
// couriers browsing available work.
type TaskView struct {
	ID              string           `json:"id"`
	Status          string           `json:"status"`
	Customer        ParticipantView  `json:"customer"`
	Courier         *ParticipantView `json:"courier,omitempty"`
	Destination     PointView        `json:"destination"`
	Address         string           `json:"address"`
	Notes           string           `json:"notes,omitempty"`
	CurrentLocation *LocationView    `json:"currentLocation,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	DeliveredAt     *time.Time       `json:"deliveredAt,omitempty"`
	Rating          *RatingView      `json:"rating,omitempty"`
	Version         int64            `json:"version"`
}

// NewTaskView maps a task aggregate to its read model.
func NewTaskView(t *task.Task) TaskView {
	v := TaskView{
		ID:          t.ID().String(),
		Status:      t.Status().String(),
		Customer:    newParticipantView(t.Customer()),
		Destination: PointView{Lat: t.Destination().Lat(), Lng: t.Destination().Lng()},
		Address:     t.Address(),
		Notes:       t.Notes(),
		CreatedAt:   t.CreatedAt(),
		DeliveredAt: t.DeliveredAt(),
		Version:     t.Version(),
	}
	if c := t.Courier(); c != nil {
		cv := newParticipantView(*c)
		v.Courier = &cv
	}
	if loc := t.CurrentLocation(); loc != nil {
		v.CurrentLocation = &LocationView{
			PointView: PointView{Lat: loc.Point().Lat(), Lng: loc.Point().Lng()},
			At:        loc.At(),
		}
	}
	if r := t.Rating(); r != nil {
		v.Rating = &RatingView{Score: r.Score(), RatedAt: r.RatedAt()}
	}
	return v
}

// NewTaskViews maps a slice, keeping its order.
func NewTaskViews(tasks []*task.Task) []TaskView {
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, NewTaskView(t))
	}
	return views
}

func newParticipantView(p task.Participant) ParticipantView {
	return ParticipantView{ID: p.ID().String(), Name: p.Name(), Email: p.Email()}
}

type MessageView struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"taskId"`
	Text       string    `json:"text"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	SenderRole string    `json:"senderRole"`
	SentAt     time.Time `json:"sentAt"`
}

func NewMessageView(m *chat.Message) MessageView {
	return MessageView{
		ID:         m.ID().String(),
		TaskID:     m.TaskID().String(),
		Text:       m.Text(),
		SenderID:   m.SenderID().String(),
		SenderName: m.SenderName(),
		SenderRole: m.SenderRole().String(),
		SentAt:     m.SentAt(),
	}
}

func NewMessageViews(messages []*chat.Message) []MessageView {
	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, NewMessageView(m))
	}
	return views
}

type ProfileView struct {
	UID      string `json:"uid"`
	FullName string `json:"fullName"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

func NewProfileView(p *user.Profile) ProfileView {
	return ProfileView{
		UID:      p.UID().String(),
		FullName: p.FullName(),
		Email:    p.Email(),
		Role:     p.Role().String(),
	}
}
