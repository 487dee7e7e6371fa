package commands

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/job"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var (
	ErrCreateFoodJobCommandIsNotConstructed = errors.New(
		"CreateFoodJobCommand must be created via NewCreateFoodJobCommand constructor",
	)
	ErrDuplicateMenuItem = errors.New("menu item ordered more than once")
)

// OrderLine is one requested menu item. Prices are not taken from the
// customer; they are snapshotted from the catalog when the job is created.
type OrderLine struct {
	MenuItemID kernel.UUID
	Quantity   int
}

// CreateFoodJobCommand represents a customer's order from one restaurant.
// The pickup point is the restaurant's location, resolved from the catalog.
//
// Example:
//
//	cmd, err := commands.NewCreateFoodJobCommand(customerID, restaurantID, dropoff,
//	    []commands.OrderLine{{MenuItemID: pizzaID, Quantity: 2}}, "ring twice")
//	if err != nil {
//	    return fmt.Errorf("invalid command: %w", err)
//	}
//	created, err := coordinator.CreateFoodJob(ctx, cmd)
type CreateFoodJobCommand struct { //nolint:recvcheck //using for validation
	customerID   kernel.UUID
	restaurantID kernel.UUID
	dropoff      job.Stop
	lines        []OrderLine
	instructions string

	guard guard.ConstructorGuard
}

func NewCreateFoodJobCommand(
	customerID kernel.UUID,
	restaurantID kernel.UUID,
	dropoff job.Stop,
	lines []OrderLine,
	instructions string,
) (CreateFoodJobCommand, error) {
	command := CreateFoodJobCommand{
		instructions: instructions,
		guard:        guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setCustomerID(customerID),
		command.setRestaurantID(restaurantID),
		command.setDropoff(dropoff),
		command.setLines(lines),
	); err != nil {
		return CreateFoodJobCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateFoodJobCommand) Validate() error {
	return c.guard.Validate(ErrCreateFoodJobCommandIsNotConstructed)
}

func (c CreateFoodJobCommand) CustomerID() kernel.UUID   { return c.customerID }
func (c CreateFoodJobCommand) RestaurantID() kernel.UUID { return c.restaurantID }
func (c CreateFoodJobCommand) Dropoff() job.Stop         { return c.dropoff }
func (c CreateFoodJobCommand) Instructions() string      { return c.instructions }

// Lines returns a copy of the requested items.
func (c CreateFoodJobCommand) Lines() []OrderLine {
	return append([]OrderLine(nil), c.lines...)
}

func (c *CreateFoodJobCommand) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return err
	}

	c.customerID = customerID
	return nil
}

func (c *CreateFoodJobCommand) setRestaurantID(restaurantID kernel.UUID) error {
	if err := restaurantID.Validate(); err != nil {
		return err
	}

	c.restaurantID = restaurantID
	return nil
}

func (c *CreateFoodJobCommand) setDropoff(dropoff job.Stop) error {
	if err := dropoff.Location.Validate(); err != nil {
		return err
	}

	c.dropoff = dropoff
	return nil
}

func (c *CreateFoodJobCommand) setLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return errs.NewValueIsRequiredError("items")
	}

	seen := make(map[kernel.UUID]struct{}, len(lines))
	var errList []error
	for i, l := range lines {
		if err := l.MenuItemID.Validate(); err != nil {
			errList = append(errList, fmt.Errorf("items[%d]: %w", i, err))
			continue
		}
		if l.Quantity < 1 {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
				fmt.Sprintf("items[%d].quantity", i), fmt.Errorf("%d is less than 1", l.Quantity)))
		}
		if _, ok := seen[l.MenuItemID]; ok {
			errList = append(errList, fmt.Errorf("items[%d]: %w", i, ErrDuplicateMenuItem))
		}
		seen[l.MenuItemID] = struct{}{}
	}
	if err := errors.Join(errList...); err != nil {
		return err
	}

	c.lines = append([]OrderLine(nil), lines...)
	return nil
}
