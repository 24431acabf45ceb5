// Package kernel holds the value objects shared by every aggregate of the
// delivery domain.
//
// The package includes:
//   - UUID: identifier of tasks and messages
//   - UserID: opaque identifier issued by the authentication provider
//   - GeoPoint: a WGS84 latitude/longitude pair
//   - Role: the capacity in which a user acts (customer or courier)
//
// All of them are immutable and safe for concurrent use. Zero values are
// invalid and fail Validate.
package kernel
