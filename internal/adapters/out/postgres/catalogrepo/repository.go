package catalogrepo

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

var _ ports.Catalog = (*GormCatalog)(nil)

// GormCatalog is a read-only view of the catalog tables.
type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) GetRestaurant(ctx context.Context, id kernel.UUID) (ports.Restaurant, error) {
	var dto RestaurantDTO
	err := c.db.WithContext(ctx).First(&dto, "id = ?", id.Google()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.Restaurant{}, errs.NewObjectNotFoundError("restaurantID", id)
	}
	if err != nil {
		return ports.Restaurant{}, err
	}
	return restaurantToPort(dto)
}

func (c *GormCatalog) GetMenuItem(ctx context.Context, restaurantID, itemID kernel.UUID) (ports.MenuItem, error) {
	var dto MenuItemDTO
	err := c.db.WithContext(ctx).
		First(&dto, "id = ? AND restaurant_id = ?", itemID.Google(), restaurantID.Google()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.MenuItem{}, errs.NewObjectNotFoundError("menuItemID", itemID)
	}
	if err != nil {
		return ports.MenuItem{}, err
	}
	return menuItemToPort(dto)
}
