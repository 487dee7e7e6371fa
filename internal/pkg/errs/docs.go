// Package errs provides standardized error types for the fulfillment core.
// It implements one pattern for error creation, formatting and unwrapping
// that the domain, application and adapter layers share.
//
// The package includes:
//   - ValueIsRequiredError: a required value is missing
//   - ValueIsInvalidError: a value failed validation
//   - ValueIsOutOfRangeError: a value falls outside configured bounds
//   - ObjectNotFoundError: an entity cannot be found
//   - ForbiddenError: the caller does not own the entity it tries to change
//
// Each error type follows the same shape:
//   - A sentinel error variable (e.g., ErrValueIsRequired) for errors.Is
//   - A struct type with fields for error details for errors.As
//   - Constructor functions with and without cause
//   - Error() for formatting and Unwrap() returning the sentinel
//
// Domain packages declare their own kinds (illegal transition, driver busy and
// so on) following the same shape.
package errs
