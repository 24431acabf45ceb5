package positioning_test

import (
	"testing"
	"time"

	"courierdesk/internal/adapters/out/positioning"
	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(t *testing.T, dest kernel.GeoPoint) *task.Task {
	t.Helper()
	p, err := task.NewParticipant("customer", "", "")
	require.NoError(t, err)
	tk, err := task.NewTask(kernel.NewUUID(), p, dest, "", "", time.Now())
	require.NoError(t, err)
	return tk
}

func TestSimulatedSource_DriftsFromDestination(t *testing.T) {
	src := positioning.NewSimulatedSource()
	tk := newTask(t, kernel.MustGeoPoint(39.9255, 32.8663))

	first, err := src.Next(t.Context(), tk)
	require.NoError(t, err)
	assert.True(t, first.IsEqual(tk.Destination()))

	second, err := src.Next(t.Context(), tk)
	require.NoError(t, err)
	assert.InDelta(t, 39.9256, second.Lat(), 1e-9)
	assert.InDelta(t, 32.86635, second.Lng(), 1e-9)

	third, err := src.Next(t.Context(), tk)
	require.NoError(t, err)
	assert.InDelta(t, 39.9257, third.Lat(), 1e-9)
	assert.InDelta(t, 32.8664, third.Lng(), 1e-9)
}

func TestSimulatedSource_ResumesFromLastRecordedLocation(t *testing.T) {
	src := positioning.NewSimulatedSource()
	tk := newTask(t, kernel.MustGeoPoint(10, 10))

	courier, err := task.NewParticipant("courier", "", "")
	require.NoError(t, err)
	require.NoError(t, tk.Claim(courier))
	require.NoError(t, tk.Start("courier"))
	sample, err := task.NewLocationSample(kernel.MustGeoPoint(10.5, 10.5), time.Now())
	require.NoError(t, err)
	require.NoError(t, tk.RecordLocation("courier", sample))

	first, err := src.Next(t.Context(), tk)
	require.NoError(t, err)
	assert.True(t, first.IsEqual(sample.Point()))
}

func TestSimulatedSource_ForgetRestarts(t *testing.T) {
	src := positioning.NewSimulatedSource()
	tk := newTask(t, kernel.MustGeoPoint(0, 0))

	_, err := src.Next(t.Context(), tk)
	require.NoError(t, err)
	_, err = src.Next(t.Context(), tk)
	require.NoError(t, err)

	src.Forget(tk.ID())
	again, err := src.Next(t.Context(), tk)
	require.NoError(t, err)
	assert.True(t, again.IsEqual(tk.Destination()))
}

func TestSimulatedSource_StaysInsideCoordinateSpace(t *testing.T) {
	src := positioning.NewSimulatedSourceWithStep(1, 1)
	tk := newTask(t, kernel.MustGeoPoint(90, 180))

	_, err := src.Next(t.Context(), tk)
	require.NoError(t, err)
	edge, err := src.Next(t.Context(), tk)
	require.NoError(t, err)
	assert.True(t, edge.IsEqual(tk.Destination()))
}
