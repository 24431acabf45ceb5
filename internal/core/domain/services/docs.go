// Package services contains domain services: rules that involve a task and
// an actor but do not belong to either alone.
//
// ClaimArbiter decides whether a courier may take a task. It is pure. The
// atomicity of the claim is provided by the versioned write that follows it
// in the claim use case.
package services
