package chat_test

import (
	"strings"
	"testing"
	"time"

	"courierdesk/internal/core/domain/model/chat"
	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMessage(t *testing.T, text string, sentAt time.Time) (*chat.Message, error) {
	t.Helper()
	return chat.NewMessage(kernel.NewUUID(), kernel.NewUUID(), "uid-1", "Ada", kernel.RoleCustomer, text, sentAt)
}

func TestNewMessage(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("trims text", func(t *testing.T) {
		m, err := newMessage(t, "  on my way \n", now)

		require.NoError(t, err)
		assert.Equal(t, "on my way", m.Text())
		assert.Equal(t, kernel.RoleCustomer, m.SenderRole())
		assert.True(t, m.SentAt().Equal(now))
	})

	t.Run("whitespace only is required error", func(t *testing.T) {
		_, err := newMessage(t, " \t\n ", now)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		assert.True(t, errs.IsInvalidInput(err))
	})

	t.Run("too long", func(t *testing.T) {
		_, err := newMessage(t, strings.Repeat("ş", chat.MaxTextLength+1), now)
		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})

	t.Run("exactly max length in runes", func(t *testing.T) {
		_, err := newMessage(t, strings.Repeat("ş", chat.MaxTextLength), now)
		require.NoError(t, err)
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := chat.NewMessage(kernel.NewUUID(), kernel.NewUUID(), "uid-1", "", "admin", "hi", now)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("sender name falls back to id", func(t *testing.T) {
		m, err := chat.NewMessage(kernel.NewUUID(), kernel.NewUUID(), "uid-1", " ", kernel.RoleCourier, "hi", now)
		require.NoError(t, err)
		assert.Equal(t, "uid-1", m.SenderName())
	})
}

func TestMessage_SettleAfter(t *testing.T) {
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	m, err := newMessage(t, "late clock", base.Add(-2*time.Second))
	require.NoError(t, err)

	m.SettleAfter(base)
	assert.True(t, m.SentAt().Equal(base))

	m.SettleAfter(base.Add(-time.Hour))
	assert.True(t, m.SentAt().Equal(base), "never moves backwards")
}

func TestLess(t *testing.T) {
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	a, _ := newMessage(t, "a", base)
	b, _ := newMessage(t, "b", base.Add(time.Millisecond))

	assert.True(t, chat.Less(a, b))
	assert.False(t, chat.Less(b, a))

	c, _ := newMessage(t, "c", base)
	assert.NotEqual(t, chat.Less(a, c), chat.Less(c, a), "ties are broken deterministically")
}

func TestRestoreMessage_RoundTripsSnapshot(t *testing.T) {
	m, err := newMessage(t, "hello", time.Now())
	require.NoError(t, err)

	restored, err := chat.RestoreMessage(m.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, m.Snapshot(), restored.Snapshot())
}
