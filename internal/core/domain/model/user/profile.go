// Package user holds the profile a person registers with: the display name
// shown to the other party and the role that gates what they may do.
package user

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/pkg/errs"
	"courierdesk/internal/pkg/guard"
)

const MaxFullNameLength = 120

var ErrProfileIsNotConstructed = errors.New("Profile must be created via NewProfile")

// Profile is keyed by the auth provider's user id.
type Profile struct {
	uid      kernel.UserID
	fullName string
	email    string
	role     kernel.Role
	guard    guard.ConstructorGuard
}

// NewProfile validates every field and reports all violations together.
// An empty email is allowed; a non-empty one must parse as an address.
func NewProfile(uid kernel.UserID, fullName, email string, role kernel.Role) (*Profile, error) {
	p := &Profile{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		p.setUID(uid),
		p.setFullName(fullName),
		p.setEmail(email),
		p.setRole(role),
	); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Profile) Validate() error {
	if p == nil {
		return ErrProfileIsNotConstructed
	}
	return p.guard.Validate(ErrProfileIsNotConstructed)
}

func (p *Profile) UID() kernel.UserID {
	return p.uid
}

func (p *Profile) FullName() string {
	return p.fullName
}

func (p *Profile) Email() string {
	return p.email
}

func (p *Profile) Role() kernel.Role {
	return p.role
}

// Participant returns the identity recorded on tasks the user creates or
// claims. The display name falls back to the email.
func (p *Profile) Participant() (task.Participant, error) {
	if err := p.Validate(); err != nil {
		return task.Participant{}, err
	}
	return task.NewParticipant(p.uid, p.fullName, p.email)
}

// EnsureRole returns Unauthorized unless the profile acts in role.
func (p *Profile) EnsureRole(role kernel.Role) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.role != role {
		return errs.NewUnauthorizedError(p.uid.String(), "is registered as "+p.role.String()+", not "+role.String())
	}
	return nil
}

func (p *Profile) setUID(uid kernel.UserID) error {
	if err := uid.Validate(); err != nil {
		return err
	}
	p.uid = uid
	return nil
}

func (p *Profile) setFullName(name string) error {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n > MaxFullNameLength {
		return errs.NewValueIsOutOfRangeError("fullName length", n, 0, MaxFullNameLength)
	}
	p.fullName = name
	return nil
}

func (p *Profile) setEmail(email string) error {
	email = strings.TrimSpace(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return errs.NewValueIsInvalidErrorWithCause("email", err)
		}
	}
	p.email = email
	return nil
}

func (p *Profile) setRole(role kernel.Role) error {
	if err := role.Validate(); err != nil {
		return err
	}
	p.role = role
	return nil
}
