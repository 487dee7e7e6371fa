package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"
)

var _ ports.Catalog = (*Catalog)(nil)

// Catalog is a read-only restaurant catalog, typically seeded from a YAML
// file for local runs and tests.
type Catalog struct {
	restaurants map[uuid.UUID]ports.Restaurant
	items       map[uuid.UUID]ports.MenuItem
}

func NewCatalog(restaurants []ports.Restaurant, items []ports.MenuItem) *Catalog {
	c := &Catalog{
		restaurants: make(map[uuid.UUID]ports.Restaurant, len(restaurants)),
		items:       make(map[uuid.UUID]ports.MenuItem, len(items)),
	}
	for _, r := range restaurants {
		c.restaurants[r.ID.Google()] = r
	}
	for _, it := range items {
		c.items[it.ID.Google()] = it
	}
	return c
}

func (c *Catalog) GetRestaurant(_ context.Context, id kernel.UUID) (ports.Restaurant, error) {
	r, ok := c.restaurants[id.Google()]
	if !ok {
		return ports.Restaurant{}, errs.NewObjectNotFoundError("restaurantID", id)
	}
	return r, nil
}

func (c *Catalog) GetMenuItem(_ context.Context, restaurantID, itemID kernel.UUID) (ports.MenuItem, error) {
	it, ok := c.items[itemID.Google()]
	if !ok || !it.RestaurantID.IsEqual(restaurantID) {
		return ports.MenuItem{}, errs.NewObjectNotFoundError("menuItemID", itemID)
	}
	return it, nil
}

type catalogFile struct {
	Restaurants []struct {
		ID        string  `yaml:"id"`
		Name      string  `yaml:"name"`
		Address   string  `yaml:"address"`
		Latitude  float64 `yaml:"latitude"`
		Longitude float64 `yaml:"longitude"`
		Active    *bool   `yaml:"active"`
		Menu      []struct {
			ID        string  `yaml:"id"`
			Name      string  `yaml:"name"`
			Price     float64 `yaml:"price"`
			Available *bool   `yaml:"available"`
		} `yaml:"menu"`
	} `yaml:"restaurants"`
}

// LoadCatalogFile reads a catalog seed file.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// LoadCatalog parses a YAML document of the form
//
//	restaurants:
//	  - id: 0b0f...
//	    name: Joe's Pizza
//	    latitude: 40.7306
//	    longitude: -73.9866
//	    menu:
//	      - id: 5d1c...
//	        name: Margherita
//	        price: 12.5
//
// active and available default to true.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	var (
		restaurants []ports.Restaurant
		items       []ports.MenuItem
		errList     []error
	)
	for i, rd := range doc.Restaurants {
		id, err := kernel.UUIDFromString(rd.ID)
		if err != nil {
			errList = append(errList, fmt.Errorf("restaurants[%d].id: %w", i, err))
			continue
		}
		loc, err := kernel.NewLocation(rd.Latitude, rd.Longitude)
		if err != nil {
			errList = append(errList, fmt.Errorf("restaurants[%d]: %w", i, err))
			continue
		}
		restaurants = append(restaurants, ports.Restaurant{
			ID:       id,
			Name:     rd.Name,
			Address:  rd.Address,
			Location: loc,
			Active:   rd.Active == nil || *rd.Active,
		})
		for j, md := range rd.Menu {
			itemID, err := kernel.UUIDFromString(md.ID)
			if err != nil {
				errList = append(errList, fmt.Errorf("restaurants[%d].menu[%d].id: %w", i, j, err))
				continue
			}
			if md.Price < 0 {
				errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
					fmt.Sprintf("restaurants[%d].menu[%d].price", i, j), fmt.Errorf("%v is negative", md.Price)))
				continue
			}
			items = append(items, ports.MenuItem{
				ID:           itemID,
				RestaurantID: id,
				Name:         md.Name,
				Price:        md.Price,
				Available:    md.Available == nil || *md.Available,
			})
		}
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}

	return NewCatalog(restaurants, items), nil
}
