// Package job provides the Job aggregate of the fulfillment core together with
// its lifecycle state machine.
//
// The package includes:
//   - Job: the aggregate root for one delivery, either a food order or a parcel
//   - Kind: the discriminator selecting the kind-specific payload
//   - Status and Event: the lifecycle states and the table of legal transitions
//   - Fee: the distance-based delivery fee, frozen at creation
//   - ParcelDetails and FoodDetails: the kind-specific payloads
//
// Key business rules:
//   - A job starts Pending without a driver and is never deleted
//   - Pending becomes Accepted only through Claim, and only once per claim race
//   - Delivered, Cancelled and Failed are terminal
//   - Only the customer may cancel; only the assigned driver may progress a job
//   - The fee is computed once before persistence and never recomputed
package job
