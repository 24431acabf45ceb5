// Package task implements the delivery Task aggregate and its lifecycle.
//
// The package includes:
//   - Task: the aggregate root shared by a customer and, once claimed, a courier
//   - Status: the state machine Pending -> Assigned -> InProgress <-> Paused -> Delivered
//   - Participant: identity and display data of a customer or courier
//   - Rating: the one-time satisfaction score given after delivery
//   - LocationSample: a courier position with the time it was observed
//
// Key business rules:
//   - A task has a courier if and only if it left Pending
//   - There is no path back to Pending once a task was claimed
//   - Only the assigned courier moves a claimed task forward or reports its position
//   - Only the customer cancels (while Pending), discards (once Delivered) or rates
//   - A Delivered task accepts exactly one rating and no other mutation
package task
