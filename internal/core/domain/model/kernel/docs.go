// Package kernel provides the domain primitives shared by every aggregate of
// the fulfillment core.
//
// The package includes:
//   - UUID: a value object for identifiers with validation and comparison
//   - Location: a validated geographic point with great-circle distance
//
// These primitives are immutable and safe for concurrent use. Their zero
// values are invalid and fail Validate.
package kernel
