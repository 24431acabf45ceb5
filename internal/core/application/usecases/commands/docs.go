// Package commands contains the operations that change system state.
//
// Every operation is a pair: an immutable Command built through a validating
// constructor, and a Handler that opens a unit of work, loads the task, asks
// the domain model to apply the change, writes it back and commits. Domain
// guards run before any write, so a failed guard leaves the store untouched.
package commands
