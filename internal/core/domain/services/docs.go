// Package services provides stateless domain services of the fulfillment
// core: logic that needs more than one aggregate or value object but no
// storage.
//
// The package includes:
//   - FeeCalculator: the deterministic distance-based delivery fee
//   - DriverRanker: orders candidate drivers by distance to a pickup
package services
