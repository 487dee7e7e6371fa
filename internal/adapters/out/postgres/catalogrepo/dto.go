// Package catalogrepo reads restaurants and menu items maintained by the
// catalog service from its tables in the shared database.
package catalogrepo

import (
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"

	"github.com/google/uuid"
)

type RestaurantDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Address   string    `gorm:"type:varchar(512)"`
	Latitude  float64   `gorm:"type:double precision;not null"`
	Longitude float64   `gorm:"type:double precision;not null"`
	Active    bool      `gorm:"not null;default:true"`
}

func (RestaurantDTO) TableName() string {
	return "restaurants"
}

type MenuItemDTO struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	RestaurantID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name         string    `gorm:"type:varchar(255);not null"`
	Price        float64   `gorm:"type:numeric(12,2);not null"`
	Available    bool      `gorm:"not null;default:true"`
}

func (MenuItemDTO) TableName() string {
	return "menu_items"
}

func restaurantToPort(dto RestaurantDTO) (ports.Restaurant, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return ports.Restaurant{}, err
	}
	loc, err := kernel.NewLocation(dto.Latitude, dto.Longitude)
	if err != nil {
		return ports.Restaurant{}, err
	}
	return ports.Restaurant{
		ID:       id,
		Name:     dto.Name,
		Address:  dto.Address,
		Location: loc,
		Active:   dto.Active,
	}, nil
}

func menuItemToPort(dto MenuItemDTO) (ports.MenuItem, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return ports.MenuItem{}, err
	}
	restaurantID, err := kernel.UUIDFromGoogle(dto.RestaurantID)
	if err != nil {
		return ports.MenuItem{}, err
	}
	return ports.MenuItem{
		ID:           id,
		RestaurantID: restaurantID,
		Name:         dto.Name,
		Price:        dto.Price,
		Available:    dto.Available,
	}, nil
}
