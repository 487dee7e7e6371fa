package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/kernel"
)

// Restaurant is the catalog's view of a restaurant needed to place a food job.
type Restaurant struct {
	ID       kernel.UUID
	Name     string
	Address  string
	Location kernel.Location
	Active   bool
}

// MenuItem is a priced catalog entry.
type MenuItem struct {
	ID           kernel.UUID
	RestaurantID kernel.UUID
	Name         string
	Price        float64
	Available    bool
}

// Catalog is the read-only restaurant and menu collaborator. Both methods
// return an errs.ObjectNotFoundError for unknown ids.
type Catalog interface {
	GetRestaurant(ctx context.Context, id kernel.UUID) (Restaurant, error)
	GetMenuItem(ctx context.Context, restaurantID, itemID kernel.UUID) (MenuItem, error)
}
