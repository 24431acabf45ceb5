// Package positioning provides sources of courier positions.
package positioning

import (
	"context"
	"sync"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/core/domain/model/task"
	"courierdesk/internal/core/ports"
)

const (
	DefaultLatStep = 0.0001
	DefaultLngStep = 0.00005
)

var _ ports.PositionSource = (*SimulatedSource)(nil)

// SimulatedSource fakes a moving courier. The first position of a task is
// its last recorded location, or the destination when there is none. Every
// following call drifts by a fixed step.
type SimulatedSource struct {
	latStep float64
	lngStep float64

	mu   sync.Mutex
	last map[kernel.UUID]kernel.GeoPoint
}

func NewSimulatedSource() *SimulatedSource {
	return NewSimulatedSourceWithStep(DefaultLatStep, DefaultLngStep)
}

func NewSimulatedSourceWithStep(latStep, lngStep float64) *SimulatedSource {
	return &SimulatedSource{
		latStep: latStep,
		lngStep: lngStep,
		last:    make(map[kernel.UUID]kernel.GeoPoint),
	}
}

func (s *SimulatedSource) Next(_ context.Context, t *task.Task) (kernel.GeoPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.last[t.ID()]
	if !ok {
		start := t.Destination()
		if loc := t.CurrentLocation(); loc != nil {
			start = loc.Point()
		}
		s.last[t.ID()] = start
		return start, nil
	}

	next, err := prev.Offset(s.latStep, s.lngStep)
	if err != nil {
		// Stay put at the edge of the coordinate space.
		return prev, nil //nolint:nilerr // a clamped position is still a valid sample
	}
	s.last[t.ID()] = next
	return next, nil
}

func (s *SimulatedSource) Forget(taskID kernel.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.last, taskID)
}
