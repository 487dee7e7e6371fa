package commands

import (
	"errors"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"
)

var ErrCreateParcelJobCommandIsNotConstructed = errors.New(
	"CreateParcelJobCommand must be created via NewCreateParcelJobCommand constructor",
)

// CreateParcelJobCommand represents a customer's request to ship a parcel
// from one point to another. The fee is not part of the command: it is
// computed from the stops when the job is created.
//
// Example:
//
//	details, err := job.NewParcelDetails(job.SizeMedium, &weight, "Ann", "+15550100", "books")
//	if err != nil {
//	    return err
//	}
//	cmd, err := commands.NewCreateParcelJobCommand(customerID, pickup, dropoff, details)
//	if err != nil {
//	    return fmt.Errorf("invalid command: %w", err)
//	}
//	created, err := coordinator.CreateParcelJob(ctx, cmd)
type CreateParcelJobCommand struct { //nolint:recvcheck //using for validation
	customerID kernel.UUID
	pickup     job.Stop
	dropoff    job.Stop
	details    job.ParcelDetails

	guard guard.ConstructorGuard
}

// NewCreateParcelJobCommand validates the customer and both stops. The
// parcel payload is expected to come from job.NewParcelDetails.
func NewCreateParcelJobCommand(
	customerID kernel.UUID,
	pickup job.Stop,
	dropoff job.Stop,
	details job.ParcelDetails,
) (CreateParcelJobCommand, error) {
	command := CreateParcelJobCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setCustomerID(customerID),
		command.setStops(pickup, dropoff),
		command.setDetails(details),
	); err != nil {
		return CreateParcelJobCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateParcelJobCommand) Validate() error {
	return c.guard.Validate(ErrCreateParcelJobCommandIsNotConstructed)
}

func (c CreateParcelJobCommand) CustomerID() kernel.UUID    { return c.customerID }
func (c CreateParcelJobCommand) Pickup() job.Stop           { return c.pickup }
func (c CreateParcelJobCommand) Dropoff() job.Stop          { return c.dropoff }
func (c CreateParcelJobCommand) Details() job.ParcelDetails { return c.details }

func (c *CreateParcelJobCommand) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return err
	}

	c.customerID = customerID
	return nil
}

func (c *CreateParcelJobCommand) setStops(pickup, dropoff job.Stop) error {
	if err := errors.Join(pickup.Location.Validate(), dropoff.Location.Validate()); err != nil {
		return err
	}

	c.pickup = pickup
	c.dropoff = dropoff
	return nil
}

func (c *CreateParcelJobCommand) setDetails(details job.ParcelDetails) error {
	if err := details.Size().Validate(); err != nil {
		return err
	}

	c.details = details
	return nil
}
