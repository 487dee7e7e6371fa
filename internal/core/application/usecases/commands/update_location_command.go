package commands

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrUpdateLocationCommandIsNotConstructed = errors.New(
	"UpdateLocationCommand must be created via NewUpdateLocationCommand constructor",
)

// UpdateLocationCommand is a driver's position report. ReportedAt comes from
// the device so that reports arriving out of order can be discarded.
type UpdateLocationCommand struct { //nolint:recvcheck //using for validation
	driverID   kernel.UUID
	location   kernel.Location
	reportedAt time.Time

	guard guard.ConstructorGuard
}

func NewUpdateLocationCommand(driverID kernel.UUID, location kernel.Location, reportedAt time.Time) (UpdateLocationCommand, error) {
	command := UpdateLocationCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setDriverID(driverID),
		command.setLocation(location),
		command.setReportedAt(reportedAt),
	); err != nil {
		return UpdateLocationCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c UpdateLocationCommand) Validate() error {
	return c.guard.Validate(ErrUpdateLocationCommandIsNotConstructed)
}

func (c UpdateLocationCommand) DriverID() kernel.UUID     { return c.driverID }
func (c UpdateLocationCommand) Location() kernel.Location { return c.location }
func (c UpdateLocationCommand) ReportedAt() time.Time     { return c.reportedAt }

func (c *UpdateLocationCommand) setDriverID(driverID kernel.UUID) error {
	if err := driverID.Validate(); err != nil {
		return err
	}

	c.driverID = driverID
	return nil
}

func (c *UpdateLocationCommand) setLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}

	c.location = location
	return nil
}

func (c *UpdateLocationCommand) setReportedAt(reportedAt time.Time) error {
	if reportedAt.IsZero() {
		return errs.NewValueIsRequiredError("reportedAt")
	}

	c.reportedAt = reportedAt
	return nil
}
