package ports_test

import (
	"testing"
	"time"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(t *testing.T, customer kernel.UserID, createdAt time.Time) *task.Task {
	t.Helper()
	p, err := task.NewParticipant(customer, "", "")
	require.NoError(t, err)
	tk, err := task.NewTask(kernel.NewUUID(), p, kernel.MustGeoPoint(1, 1), "", "", createdAt)
	require.NoError(t, err)
	return tk
}

func deliver(t *testing.T, tk *task.Task, courier kernel.UserID, at time.Time) {
	t.Helper()
	p, err := task.NewParticipant(courier, "", "")
	require.NoError(t, err)
	require.NoError(t, tk.Claim(p))
	require.NoError(t, tk.Complete(courier, at))
}

func TestTaskFilter_Matches(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mine := newTask(t, "alice", base)
	theirs := newTask(t, "bob", base)
	deliver(t, theirs, "carol", base.Add(time.Hour))

	assert.True(t, ports.TaskFilter{}.Matches(mine))
	assert.True(t, ports.TaskFilter{CustomerID: "alice"}.Matches(mine))
	assert.False(t, ports.TaskFilter{CustomerID: "alice"}.Matches(theirs))
	assert.True(t, ports.TaskFilter{CourierID: "carol"}.Matches(theirs))
	assert.False(t, ports.TaskFilter{CourierID: "carol"}.Matches(mine))
	assert.False(t, ports.TaskFilter{ExcludeCustomerID: "alice"}.Matches(mine))
	assert.True(t, ports.TaskFilter{Statuses: []task.Status{task.Pending}}.Matches(mine))
	assert.False(t, ports.TaskFilter{Statuses: []task.Status{task.Assigned, task.InProgress}}.Matches(theirs))
}

func TestTaskFilter_Sort(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	older := newTask(t, "alice", base)
	newer := newTask(t, "alice", base.Add(time.Minute))
	deliveredLate := newTask(t, "alice", base.Add(-time.Hour))
	deliveredEarly := newTask(t, "alice", base.Add(2*time.Minute))
	deliver(t, deliveredLate, "carol", base.Add(3*time.Hour))
	deliver(t, deliveredEarly, "carol", base.Add(2*time.Hour))

	byCreated := []*task.Task{older, deliveredLate, newer, deliveredEarly}
	ports.TaskFilter{}.Sort(byCreated)
	assert.Equal(t, []*task.Task{deliveredEarly, newer, older, deliveredLate}, byCreated)

	byDelivered := []*task.Task{older, deliveredEarly, newer, deliveredLate}
	ports.TaskFilter{Order: ports.OrderByDeliveredDesc}.Sort(byDelivered)
	assert.Equal(t, []*task.Task{deliveredLate, deliveredEarly, newer, older}, byDelivered)
}
