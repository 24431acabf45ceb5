package task

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"courierdesk/internal/core/domain/model/kernel"
	"courierdesk/internal/pkg/errs"
	"courierdesk/internal/pkg/guard"
)

const (
	MaxAddressLength = 500
	MaxNotesLength   = 1000
)

var (
	// ErrTaskIsNotConstructed is returned when a Task was not built by NewTask
	// or RestoreTask.
	ErrTaskIsNotConstructed = errors.New("Task must be created via NewTask or RestoreTask")

	// ErrAlreadyRated is returned by Rate when the task already carries a rating.
	ErrAlreadyRated = errors.New("task is already rated")
)

// Task is a delivery requested by a customer and executed by at most one
// courier. It is the only shared mutable document of the system.
//
// Task follows these invariants:
//   - courier is set if and only if status is Assigned, InProgress, Paused or Delivered
//   - destination, address, notes and customer never change after creation
//   - currentLocation is nil once the task is Delivered
//   - rating goes from nil to a value at most once
//
// version is an optimistic concurrency token. The domain never interprets
// it; storage adapters compare it on write and bump it on success.
type Task struct {
	id              kernel.UUID
	status          Status
	customer        Participant
	courier         *Participant
	destination     kernel.GeoPoint
	address         string
	notes           string
	currentLocation *LocationSample
	createdAt       time.Time
	deliveredAt     *time.Time
	rating          *Rating
	version         int64
	guard           guard.ConstructorGuard
}

// NewTask creates a Pending task without a courier.
//
// When address is blank the coordinate string of destination is used, which
// is what users see when reverse geocoding is unavailable.
//
// Example:
//
//	customer, _ := task.NewParticipant("uid-1", "Ada", "ada@example.com")
//	t, err := task.NewTask(kernel.NewUUID(), customer, dest, "Main St 1", "ring twice", time.Now())
func NewTask(
	id kernel.UUID,
	customer Participant,
	destination kernel.GeoPoint,
	address string,
	notes string,
	createdAt time.Time,
) (*Task, error) {
	t := &Task{
		status:    Pending,
		createdAt: createdAt.UTC(),
		guard:     guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		t.setID(id),
		t.setCustomer(customer),
		t.setDestination(destination),
		t.setNotes(notes),
	); err != nil {
		return nil, err
	}
	if err := t.setAddress(address); err != nil {
		return nil, err
	}

	return t, nil
}

// State is the full persisted form of a Task. Storage adapters map their
// records to and from it.
type State struct {
	ID              kernel.UUID
	Status          Status
	Customer        Participant
	Courier         *Participant
	Destination     kernel.GeoPoint
	Address         string
	Notes           string
	CurrentLocation *LocationSample
	CreatedAt       time.Time
	DeliveredAt     *time.Time
	Rating          *Rating
	Version         int64
}

// RestoreTask rebuilds a Task read from storage. It re-checks the structural
// invariants so that a corrupted record is reported instead of loaded.
func RestoreTask(s State) (*Task, error) {
	t := &Task{
		status:          s.Status,
		courier:         clonePtr(s.Courier),
		currentLocation: clonePtr(s.CurrentLocation),
		createdAt:       s.CreatedAt.UTC(),
		deliveredAt:     clonePtr(s.DeliveredAt),
		rating:          clonePtr(s.Rating),
		version:         s.Version,
		guard:           guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		t.setID(s.ID),
		t.setCustomer(s.Customer),
		t.setDestination(s.Destination),
		t.setNotes(s.Notes),
		t.setAddress(s.Address),
		s.Status.Validate(),
	); err != nil {
		return nil, err
	}
	if err := s.Status.ValidateCanHaveCourier(s.Courier != nil); err != nil {
		return nil, err
	}
	if s.Status == Delivered && s.CurrentLocation != nil {
		return nil, errs.NewValueIsInvalidError("currentLocation of a delivered task")
	}

	return t, nil
}

// Snapshot returns a detached copy of the task's state.
func (t *Task) Snapshot() State {
	return State{
		ID:              t.id,
		Status:          t.status,
		Customer:        t.customer,
		Courier:         clonePtr(t.courier),
		Destination:     t.destination,
		Address:         t.address,
		Notes:           t.notes,
		CurrentLocation: clonePtr(t.currentLocation),
		CreatedAt:       t.createdAt,
		DeliveredAt:     clonePtr(t.deliveredAt),
		Rating:          clonePtr(t.rating),
		Version:         t.version,
	}
}

// Validate ensures the Task was created through a constructor.
func (t *Task) Validate() error {
	if t == nil {
		return ErrTaskIsNotConstructed
	}
	return t.guard.Validate(ErrTaskIsNotConstructed)
}

func (t *Task) ID() kernel.UUID {
	return t.id
}

func (t *Task) Status() Status {
	return t.status
}

func (t *Task) Customer() Participant {
	return t.customer
}

func (t *Task) Courier() *Participant {
	return clonePtr(t.courier)
}

func (t *Task) Destination() kernel.GeoPoint {
	return t.destination
}

func (t *Task) Address() string {
	return t.address
}

func (t *Task) Notes() string {
	return t.notes
}

func (t *Task) CurrentLocation() *LocationSample {
	return clonePtr(t.currentLocation)
}

func (t *Task) CreatedAt() time.Time {
	return t.createdAt
}

func (t *Task) DeliveredAt() *time.Time {
	return clonePtr(t.deliveredAt)
}

func (t *Task) Rating() *Rating {
	return clonePtr(t.rating)
}

func (t *Task) Version() int64 {
	return t.version
}

func (t *Task) IsOwnedBy(id kernel.UserID) bool {
	return t.customer.Is(id)
}

func (t *Task) IsAssignedTo(id kernel.UserID) bool {
	return t.courier != nil && t.courier.Is(id)
}

// AdvanceVersion is called by storage adapters after a successful
// conditional write.
func (t *Task) AdvanceVersion() {
	t.version++
}

// RoleOf returns the capacity in which id participates in the task.
func (t *Task) RoleOf(id kernel.UserID) (kernel.Role, bool) {
	switch {
	case t.IsOwnedBy(id):
		return kernel.RoleCustomer, true
	case t.IsAssignedTo(id):
		return kernel.RoleCourier, true
	default:
		return "", false
	}
}

// IsVisibleTo reports whether id may read the task: its participants always,
// everyone else only while it is up for grabs.
func (t *Task) IsVisibleTo(id kernel.UserID) bool {
	_, ok := t.RoleOf(id)
	return ok || t.status == Pending
}

// Claim assigns a Pending task to courier.
//
// The customer of the task can never claim it, whatever its status. Higher
// level claim policy (idempotent re-claim, race handling) lives in the
// ClaimArbiter domain service.
func (t *Task) Claim(courier Participant) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := courier.ID().Validate(); err != nil {
		return err
	}
	if t.customer.Is(courier.ID()) {
		return errs.NewUnauthorizedError(courier.ID().String(), "cannot claim their own task")
	}

	next, err := t.status.Claim()
	if err != nil {
		return err
	}

	t.courier = &courier
	t.status = next
	return nil
}

// Start begins or resumes the delivery.
func (t *Task) Start(actor kernel.UserID) error {
	if err := t.ensureCourier(actor, "start"); err != nil {
		return err
	}
	next, err := t.status.Start()
	if err != nil {
		return err
	}
	t.status = next
	return nil
}

// Pause suspends the delivery. The last known location is kept so that the
// customer still sees where the courier stopped.
func (t *Task) Pause(actor kernel.UserID) error {
	if err := t.ensureCourier(actor, "pause"); err != nil {
		return err
	}
	next, err := t.status.Pause()
	if err != nil {
		return err
	}
	t.status = next
	return nil
}

// Complete marks the task Delivered at the given instant and clears the
// courier position.
func (t *Task) Complete(actor kernel.UserID, at time.Time) error {
	if err := t.ensureCourier(actor, "complete"); err != nil {
		return err
	}
	next, err := t.status.Complete()
	if err != nil {
		return err
	}
	deliveredAt := at.UTC()
	t.status = next
	t.currentLocation = nil
	t.deliveredAt = &deliveredAt
	return nil
}

// RecordLocation stores the latest courier position. Only an InProgress task
// accepts samples.
func (t *Task) RecordLocation(actor kernel.UserID, sample LocationSample) error {
	if err := t.ensureCourier(actor, "record location"); err != nil {
		return err
	}
	if t.status != InProgress {
		return errs.NewInvalidTransitionError("record location", t.status.String())
	}
	if err := sample.Point().Validate(); err != nil {
		return err
	}
	t.currentLocation = &sample
	return nil
}

// Rate records the customer's score. The checks run in a fixed order:
// ownership, status, the write-once rule, then the score range.
func (t *Task) Rate(actor kernel.UserID, rating Rating) error {
	if err := t.EnsureRatable(actor); err != nil {
		return err
	}
	if rating.Score() < MinScore || rating.Score() > MaxScore {
		return errs.NewValueIsOutOfRangeError("score", rating.Score(), MinScore, MaxScore)
	}
	t.rating = &rating
	return nil
}

// EnsureCancellable checks that actor may remove the task as a cancellation.
func (t *Task) EnsureCancellable(actor kernel.UserID) error {
	if err := t.ensureCustomer(actor, "cancel"); err != nil {
		return err
	}
	return t.status.ValidateCancel()
}

// EnsureRatable runs the checks of Rate that do not depend on the score.
func (t *Task) EnsureRatable(actor kernel.UserID) error {
	if err := t.ensureCustomer(actor, "rate"); err != nil {
		return err
	}
	if t.status != Delivered {
		return errs.NewInvalidTransitionError("rate", t.status.String())
	}
	if t.rating != nil {
		return ErrAlreadyRated
	}
	return nil
}

// EnsureDiscardable checks that actor may remove a finished task from their
// history.
func (t *Task) EnsureDiscardable(actor kernel.UserID) error {
	if err := t.ensureCustomer(actor, "discard"); err != nil {
		return err
	}
	return t.status.ValidateDiscard()
}

func (t *Task) ensureCustomer(actor kernel.UserID, action string) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if !t.customer.Is(actor) {
		return errs.NewUnauthorizedError(actor.String(), "is not the customer allowed to "+action+" task "+t.id.String())
	}
	return nil
}

// ensureCourier reports InvalidTransition for a task nobody claimed yet and
// Unauthorized for anyone but the assigned courier.
func (t *Task) ensureCourier(actor kernel.UserID, action string) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.courier == nil {
		return errs.NewInvalidTransitionError(action, t.status.String())
	}
	if !t.courier.Is(actor) {
		return errs.NewUnauthorizedError(actor.String(), "is not the courier assigned to task "+t.id.String())
	}
	return nil
}

func (t *Task) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	t.id = id
	return nil
}

func (t *Task) setCustomer(customer Participant) error {
	if err := customer.ID().Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customer", err)
	}
	t.customer = customer
	return nil
}

func (t *Task) setDestination(destination kernel.GeoPoint) error {
	if err := destination.Validate(); err != nil {
		return err
	}
	t.destination = destination
	return nil
}

// setAddress must run after setDestination because of the coordinate fallback.
func (t *Task) setAddress(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		address = t.destination.String()
	}
	if n := utf8.RuneCountInString(address); n > MaxAddressLength {
		return errs.NewValueIsOutOfRangeError("address length", n, 1, MaxAddressLength)
	}
	t.address = address
	return nil
}

func (t *Task) setNotes(notes string) error {
	notes = strings.TrimSpace(notes)
	if n := utf8.RuneCountInString(notes); n > MaxNotesLength {
		return errs.NewValueIsOutOfRangeError("notes length", n, 0, MaxNotesLength)
	}
	t.notes = notes
	return nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
