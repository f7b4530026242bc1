package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item holds a quantity that is backed 1:1 by reserved units on the product.
type Item struct {
	ProductID     uuid.UUID       `json:"productId"`
	Qty           int             `json:"qty"`
	PriceSnapshot decimal.Decimal `json:"priceSnapshot"`
}

type Cart struct {
	id        uuid.UUID
	userID    uuid.UUID
	items     []Item
	status    Status
	expiresAt time.Time
	createdAt time.Time
	updatedAt time.Time
}

func NewCart(userID uuid.UUID, now time.Time, ttl time.Duration) *Cart {
	return &Cart{
		id:        uuid.New(),
		userID:    userID,
		status:    StatusActive,
		expiresAt: now.Add(ttl),
		createdAt: now,
		updatedAt: now,
	}
}

func ReconstructCart(
	id, userID uuid.UUID,
	items []Item,
	status Status,
	expiresAt, createdAt, updatedAt time.Time,
) *Cart {
	return &Cart{
		id:        id,
		userID:    userID,
		items:     append([]Item(nil), items...),
		status:    status,
		expiresAt: expiresAt,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// IsExpiredAt reports whether an active cart has outlived its deadline.
func (c *Cart) IsExpiredAt(now time.Time) bool {
	return c.status == StatusActive && c.expiresAt.Before(now)
}

// Expire empties the cart and returns the lines whose reservations must be
// released. Calling it on a cart that holds nothing returns no lines.
func (c *Cart) Expire(now time.Time) []Item {
	released := c.takeItems()
	if c.status == StatusActive {
		c.status = StatusExpired
	}
	c.updatedAt = now
	return released
}

// AddItem merges qty into the product's line and reopens the cart. The price
// snapshot always follows the latest price the reservation was made at.
func (c *Cart) AddItem(productID uuid.UUID, qty int, price decimal.Decimal, now time.Time, ttl time.Duration) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	if err := CheckTransition(c.status, StatusActive); err != nil {
		return err
	}

	if i := c.indexOf(productID); i >= 0 {
		c.items[i].Qty += qty
		c.items[i].PriceSnapshot = price
	} else {
		c.items = append(c.items, Item{ProductID: productID, Qty: qty, PriceSnapshot: price})
	}

	c.status = StatusActive
	c.expiresAt = now.Add(ttl)
	c.updatedAt = now
	return nil
}

// RemoveItem takes up to qty units off the product's line, or the whole line
// when qty is nil. It returns how many units were removed.
func (c *Cart) RemoveItem(productID uuid.UUID, qty *int, now time.Time, ttl time.Duration) (int, error) {
	if qty != nil && *qty < 1 {
		return 0, ErrInvalidQuantity
	}
	i := c.indexOf(productID)
	if i < 0 {
		return 0, nil
	}

	removed := c.items[i].Qty
	if qty != nil && *qty < removed {
		removed = *qty
	}

	c.items[i].Qty -= removed
	if c.items[i].Qty <= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
	c.expiresAt = now.Add(ttl)
	c.updatedAt = now
	return removed, nil
}

// Clear empties the cart on explicit request or logout and parks it as expired.
func (c *Cart) Clear(now time.Time, ttl time.Duration) []Item {
	released := c.takeItems()
	c.status = StatusExpired
	c.expiresAt = now.Add(ttl)
	c.updatedAt = now
	return released
}

// CheckOut validates the cart can be turned into an order and returns its
// lines. The cart is left empty and checked out.
func (c *Cart) CheckOut(now time.Time) ([]Item, error) {
	if c.status != StatusActive || len(c.items) == 0 {
		return nil, ErrCartEmpty
	}
	if c.expiresAt.Before(now) {
		return nil, ErrCartExpired
	}
	if err := CheckTransition(c.status, StatusCheckedOut); err != nil {
		return nil, err
	}

	lines := c.takeItems()
	c.status = StatusCheckedOut
	c.expiresAt = now
	c.updatedAt = now
	return lines, nil
}

// DropProduct removes a product's line regardless of quantity and returns the
// units it held.
func (c *Cart) DropProduct(productID uuid.UUID, now time.Time) (int, bool) {
	i := c.indexOf(productID)
	if i < 0 {
		return 0, false
	}
	qty := c.items[i].Qty
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.updatedAt = now
	return qty, true
}

func (c *Cart) QtyOf(productID uuid.UUID) int {
	if i := c.indexOf(productID); i >= 0 {
		return c.items[i].Qty
	}
	return 0
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i, it := range c.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) takeItems() []Item {
	items := c.items
	c.items = nil
	return items
}

func (c *Cart) ID() uuid.UUID        { return c.id }
func (c *Cart) UserID() uuid.UUID    { return c.userID }
func (c *Cart) Items() []Item        { return append([]Item(nil), c.items...) }
func (c *Cart) Status() Status       { return c.status }
func (c *Cart) ExpiresAt() time.Time { return c.expiresAt }
func (c *Cart) CreatedAt() time.Time { return c.createdAt }
func (c *Cart) UpdatedAt() time.Time { return c.updatedAt }
func (c *Cart) IsEmpty() bool        { return len(c.items) == 0 }
