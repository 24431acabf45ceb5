package kernel

import (
	"strings"
	"unicode/utf8"

	"courierdesk/internal/pkg/errs"
)

// MaxUserIDLength bounds identifiers issued by the auth provider. Firebase
// uids are at most 128 characters.
const MaxUserIDLength = 128

// UserID is the opaque identifier the authentication collaborator assigns to
// a user. The domain never interprets it beyond equality.
type UserID string

// NewUserID trims s and rejects empty or oversized identifiers.
func NewUserID(s string) (UserID, error) {
	id := UserID(strings.TrimSpace(s))
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

func (id UserID) Validate() error {
	if id == "" {
		return errs.NewValueIsRequiredError("userID")
	}
	if n := utf8.RuneCountInString(string(id)); n > MaxUserIDLength {
		return errs.NewValueIsOutOfRangeError("userID length", n, 1, MaxUserIDLength)
	}
	return nil
}

func (id UserID) String() string {
	return string(id)
}
