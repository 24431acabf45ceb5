// Package errs holds the error taxonomy shared by the domain, the use cases
// and the adapters.
//
// Each kind has a sentinel (ErrObjectNotFound, ErrUnauthorized, ...) and a
// struct type carrying the details. The struct's Unwrap returns the
// sentinel, so the HTTP layer maps failures to status codes with errors.Is
// and never inspects message text:
//
//   - ObjectNotFoundError: the referenced task or profile does not exist
//   - UnauthorizedError: the caller has no right to act on the object
//   - InvalidTransitionError: the lifecycle does not allow the move
//   - ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError:
//     input validation, grouped by IsInvalidInput
//   - StaleObjectError: a versioned write lost a race
//   - StoreUnavailableError: transient backend failure
package errs
