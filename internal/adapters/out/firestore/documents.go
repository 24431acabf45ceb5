package firestore

import (
	"time"

	"courierdesk/internal/core/domain/model/chat"
	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/domain/model/user"

	fs "cloud.google.com/go/firestore"
)

type pointDoc struct {
	Lat float64 `firestore:"lat"`
	Lng float64 `firestore:"lng"`
}

type locationDoc struct {
	Lat float64   `firestore:"lat"`
	Lng float64   `firestore:"lng"`
	At  time.Time `firestore:"timestamp"`
}

type ratingDoc struct {
	Score   int       `firestore:"score"`
	RatedAt time.Time `firestore:"ratedAt"`
}

type taskDoc struct {
	Status          string       `firestore:"status"`
	CustomerID      string       `firestore:"customerId"`
	CustomerName    string       `firestore:"customerName"`
	CustomerEmail   string       `firestore:"customerEmail"`
	CourierID       *string      `firestore:"courierId"`
	CourierName     *string      `firestore:"courierName"`
	CourierEmail    *string      `firestore:"courierEmail"`
	Destination     pointDoc     `firestore:"destination"`
	Address         string       `firestore:"address"`
	Notes           string       `firestore:"notes"`
	CurrentLocation *locationDoc `firestore:"currentLocation"`
	CreatedAt       time.Time    `firestore:"createdAt"`
	DeliveredAt     *time.Time   `firestore:"deliveredAt"`
	Rating          *ratingDoc   `firestore:"rating"`
	Version         int64        `firestore:"version"`
}

// taskFieldsWithoutLocation are the fields a status transition rewrites.
// currentLocation is owned by UpdateLocation, which leaves the version as it
// is, and is only cleared when a task is delivered.
var taskFieldsWithoutLocation = []fs.FieldPath{
	{"status"},
	{"customerId"},
	{"customerName"},
	{"customerEmail"},
	{"courierId"},
	{"courierName"},
	{"courierEmail"},
	{"destination"},
	{"address"},
	{"notes"},
	{"createdAt"},
	{"deliveredAt"},
	{"rating"},
	{"version"},
}

type messageDoc struct {
	Text       string    `firestore:"text"`
	SenderID   string    `firestore:"senderId"`
	SenderName string    `firestore:"senderName"`
	Role       string    `firestore:"role"`
	Timestamp  time.Time `firestore:"timestamp"`
}

type userDoc struct {
	UID      string `firestore:"uid"`
	Email    string `firestore:"email"`
	FullName string `firestore:"fullName"`
	Role     string `firestore:"role"`
}

func newLocationDoc(s task.LocationSample) *locationDoc {
	return &locationDoc{Lat: s.Point().Lat(), Lng: s.Point().Lng(), At: s.At()}
}

func taskToDoc(t *task.Task) taskDoc {
	s := t.Snapshot()
	doc := taskDoc{
		Status:        s.Status.String(),
		CustomerID:    s.Customer.ID().String(),
		CustomerName:  s.Customer.Name(),
		CustomerEmail: s.Customer.Email(),
		Destination:   pointDoc{Lat: s.Destination.Lat(), Lng: s.Destination.Lng()},
		Address:       s.Address,
		Notes:         s.Notes,
		CreatedAt:     s.CreatedAt,
		DeliveredAt:   s.DeliveredAt,
		Version:       s.Version,
	}
	if c := s.Courier; c != nil {
		id, name, email := c.ID().String(), c.Name(), c.Email()
		doc.CourierID, doc.CourierName, doc.CourierEmail = &id, &name, &email
	}
	if loc := s.CurrentLocation; loc != nil {
		doc.CurrentLocation = newLocationDoc(*loc)
	}
	if r := s.Rating; r != nil {
		doc.Rating = &ratingDoc{Score: r.Score(), RatedAt: r.RatedAt()}
	}
	return doc
}

func taskFromDoc(id string, doc taskDoc) (*task.Task, error) {
	taskID, err := kernel.UUIDFromString(id)
	if err != nil {
		return nil, err
	}
	st, err := task.ParseStatus(doc.Status)
	if err != nil {
		return nil, err
	}
	customer, err := task.NewParticipant(kernel.UserID(doc.CustomerID), doc.CustomerName, doc.CustomerEmail)
	if err != nil {
		return nil, err
	}
	destination, err := kernel.NewGeoPoint(doc.Destination.Lat, doc.Destination.Lng)
	if err != nil {
		return nil, err
	}

	state := task.State{
		ID:          taskID,
		Status:      st,
		Customer:    customer,
		Destination: destination,
		Address:     doc.Address,
		Notes:       doc.Notes,
		CreatedAt:   doc.CreatedAt,
		DeliveredAt: doc.DeliveredAt,
		Version:     doc.Version,
	}

	if doc.CourierID != nil {
		courier, courierErr := task.NewParticipant(kernel.UserID(*doc.CourierID), deref(doc.CourierName), deref(doc.CourierEmail))
		if courierErr != nil {
			return nil, courierErr
		}
		state.Courier = &courier
	}
	if loc := doc.CurrentLocation; loc != nil {
		point, pointErr := kernel.NewGeoPoint(loc.Lat, loc.Lng)
		if pointErr != nil {
			return nil, pointErr
		}
		sample, sampleErr := task.NewLocationSample(point, loc.At)
		if sampleErr != nil {
			return nil, sampleErr
		}
		state.CurrentLocation = &sample
	}
	if r := doc.Rating; r != nil {
		rating, ratingErr := task.NewRating(r.Score, r.RatedAt)
		if ratingErr != nil {
			return nil, ratingErr
		}
		state.Rating = &rating
	}

	return task.RestoreTask(state)
}

func messageToDoc(m *chat.Message) messageDoc {
	return messageDoc{
		Text:       m.Text(),
		SenderID:   m.SenderID().String(),
		SenderName: m.SenderName(),
		Role:       m.SenderRole().String(),
		Timestamp:  m.SentAt(),
	}
}

func messageFromDoc(taskID kernel.UUID, id string, doc messageDoc) (*chat.Message, error) {
	messageID, err := kernel.UUIDFromString(id)
	if err != nil {
		return nil, err
	}
	role, err := kernel.ParseRole(doc.Role)
	if err != nil {
		return nil, err
	}
	return chat.RestoreMessage(chat.State{
		ID:         messageID,
		TaskID:     taskID,
		Text:       doc.Text,
		SenderID:   kernel.UserID(doc.SenderID),
		SenderName: doc.SenderName,
		SenderRole: role,
		SentAt:     doc.Timestamp,
	})
}

func profileToDoc(p *user.Profile) userDoc {
	return userDoc{
		UID:      p.UID().String(),
		Email:    p.Email(),
		FullName: p.FullName(),
		Role:     p.Role().String(),
	}
}

func profileFromDoc(doc userDoc) (*user.Profile, error) {
	role, err := kernel.ParseRole(doc.Role)
	if err != nil {
		return nil, err
	}
	return user.NewProfile(kernel.UserID(doc.UID), doc.FullName, doc.Email, role)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
