package job

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// LineItem is one menu item of a food order with the unit price captured at
// order time.
type LineItem struct {
	menuItemID kernel.UUID
	quantity   int
	unitPrice  float64
}

// NewLineItem validates one line. unitPrice comes from the catalog, never from
// the customer.
func NewLineItem(menuItemID kernel.UUID, quantity int, unitPrice float64) (LineItem, error) {
	var errList []error
	if err := menuItemID.Validate(); err != nil {
		errList = append(errList, err)
	}
	if quantity <= 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", quantity)))
	}
	if err := checkAmount("unitPrice", unitPrice); err != nil {
		errList = append(errList, err)
	}
	if err := errors.Join(errList...); err != nil {
		return LineItem{}, err
	}
	return LineItem{menuItemID: menuItemID, quantity: quantity, unitPrice: RoundCents(unitPrice)}, nil
}

func (l LineItem) MenuItemID() kernel.UUID { return l.menuItemID }
func (l LineItem) Quantity() int           { return l.quantity }
func (l LineItem) UnitPrice() float64      { return l.unitPrice }

// LineTotal is quantity times unit price, rounded to cents.
func (l LineItem) LineTotal() float64 {
	return RoundCents(float64(l.quantity) * l.unitPrice)
}

// FoodDetails is the payload of a KindFood job.
type FoodDetails struct {
	restaurantID kernel.UUID
	items        []LineItem
	subtotal     float64
	tax          float64
	instructions string
}

// NewFoodDetails prices an order: the subtotal is the sum of line totals and
// the tax is taxRate applied to the subtotal.
//
// Example:
//
//	details, err := job.NewFoodDetails(restaurantID, items, 0.08, "no onions")
func NewFoodDetails(restaurantID kernel.UUID, items []LineItem, taxRate float64, instructions string) (FoodDetails, error) {
	if taxRate < 0 || taxRate >= 1 {
		return FoodDetails{}, errs.NewValueIsOutOfRangeError("taxRate", taxRate, 0, 1)
	}
	subtotal := 0.0
	for _, it := range items {
		subtotal += it.LineTotal()
	}
	subtotal = RoundCents(subtotal)
	return RestoreFoodDetails(restaurantID, items, subtotal, RoundCents(subtotal*taxRate), instructions)
}

// RestoreFoodDetails rebuilds a stored payload without repricing it.
func RestoreFoodDetails(restaurantID kernel.UUID, items []LineItem, subtotal, tax float64, instructions string) (FoodDetails, error) {
	var errList []error
	if err := restaurantID.Validate(); err != nil {
		errList = append(errList, err)
	}
	if len(items) == 0 {
		errList = append(errList, errs.NewValueIsRequiredError("items"))
	}
	errList = append(errList, checkAmount("subtotal", subtotal), checkAmount("tax", tax))
	if err := errors.Join(errList...); err != nil {
		return FoodDetails{}, err
	}

	return FoodDetails{
		restaurantID: restaurantID,
		items:        append([]LineItem(nil), items...),
		subtotal:     subtotal,
		tax:          tax,
		instructions: instructions,
	}, nil
}

func (f FoodDetails) RestaurantID() kernel.UUID { return f.restaurantID }

// Items returns a copy of the line items.
func (f FoodDetails) Items() []LineItem {
	return append([]LineItem(nil), f.items...)
}

func (f FoodDetails) Subtotal() float64    { return f.subtotal }
func (f FoodDetails) Tax() float64         { return f.tax }
func (f FoodDetails) Instructions() string { return f.instructions }
