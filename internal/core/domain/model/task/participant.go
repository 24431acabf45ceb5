package task

import (
	"strings"

	"courierdesk/internal/core/domain/model/kernel"
)

// Participant is the identity of a customer or courier as recorded on a
// task. The name is a display snapshot taken when the participant joined.
type Participant struct {
	id    kernel.UserID
	name  string
	email string
}

// NewParticipant falls back to the email when name is blank, and to the
// user id when both are blank.
func NewParticipant(id kernel.UserID, name, email string) (Participant, error) {
	if err := id.Validate(); err != nil {
		return Participant{}, err
	}
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		name = email
	}
	if name == "" {
		name = id.String()
	}
	return Participant{id: id, name: name, email: email}, nil
}

func (p Participant) ID() kernel.UserID {
	return p.id
}

func (p Participant) Name() string {
	return p.name
}

func (p Participant) Email() string {
	return p.email
}

func (p Participant) Is(id kernel.UserID) bool {
	return p.id == id
}
