// Package chat models the per-task message log shared by a customer and the
// courier of the task.
package chat

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/pkg/errs"
	"courierdesk/internal/pkg/guard"
)

const MaxTextLength = 2000

var ErrMessageIsNotConstructed = errors.New("Message must be created via NewMessage or RestoreMessage")

// Message is an immutable chat entry. Messages of one task are ordered by
// SentAt and never edited or removed individually.
type Message struct {
	id         kernel.UUID
	taskID     kernel.UUID
	text       string
	senderID   kernel.UserID
	senderName string
	senderRole kernel.Role
	sentAt     time.Time
	guard      guard.ConstructorGuard
}

// NewMessage trims text and rejects it when empty or longer than
// MaxTextLength runes.
func NewMessage(
	id kernel.UUID,
	taskID kernel.UUID,
	senderID kernel.UserID,
	senderName string,
	senderRole kernel.Role,
	text string,
	sentAt time.Time,
) (*Message, error) {
	m := &Message{
		senderName: strings.TrimSpace(senderName),
		sentAt:     sentAt.UTC(),
		guard:      guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		m.setID(id),
		m.setTaskID(taskID),
		senderID.Validate(),
		senderRole.Validate(),
		m.setText(text),
	); err != nil {
		return nil, err
	}
	m.senderID = senderID
	m.senderRole = senderRole
	if m.senderName == "" {
		m.senderName = senderID.String()
	}

	return m, nil
}

// State is the persisted form of a Message.
type State struct {
	ID         kernel.UUID
	TaskID     kernel.UUID
	Text       string
	SenderID   kernel.UserID
	SenderName string
	SenderRole kernel.Role
	SentAt     time.Time
}

func RestoreMessage(s State) (*Message, error) {
	return NewMessage(s.ID, s.TaskID, s.SenderID, s.SenderName, s.SenderRole, s.Text, s.SentAt)
}

func (m *Message) Snapshot() State {
	return State{
		ID:         m.id,
		TaskID:     m.taskID,
		Text:       m.text,
		SenderID:   m.senderID,
		SenderName: m.senderName,
		SenderRole: m.senderRole,
		SentAt:     m.sentAt,
	}
}

func (m *Message) Validate() error {
	if m == nil {
		return ErrMessageIsNotConstructed
	}
	return m.guard.Validate(ErrMessageIsNotConstructed)
}

// SettleAfter moves SentAt forward to last when the message would otherwise
// sort before an already stored one. Stores call it while holding the task's
// write lock, which keeps the log non-decreasing under client clock skew.
func (m *Message) SettleAfter(last time.Time) {
	if m.sentAt.Before(last) {
		m.sentAt = last.UTC()
	}
}

func (m *Message) ID() kernel.UUID {
	return m.id
}

func (m *Message) TaskID() kernel.UUID {
	return m.taskID
}

func (m *Message) Text() string {
	return m.text
}

func (m *Message) SenderID() kernel.UserID {
	return m.senderID
}

func (m *Message) SenderName() string {
	return m.senderName
}

func (m *Message) SenderRole() kernel.Role {
	return m.senderRole
}

func (m *Message) SentAt() time.Time {
	return m.sentAt
}

// Less orders messages by SentAt, then by id for equal timestamps.
func Less(a, b *Message) bool {
	if !a.sentAt.Equal(b.sentAt) {
		return a.sentAt.Before(b.sentAt)
	}
	return a.id.String() < b.id.String()
}

func (m *Message) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	m.id = id
	return nil
}

func (m *Message) setTaskID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("taskID", err)
	}
	m.taskID = id
	return nil
}

func (m *Message) setText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errs.NewValueIsRequiredError("text")
	}
	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return errs.NewValueIsOutOfRangeError("text length", n, 1, MaxTextLength)
	}
	m.text = text
	return nil
}
