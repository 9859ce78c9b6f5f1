package model

import "time"

// DeliveryMode selects how an order reaches the customer.
type DeliveryMode string

const (
	DeliveryModePickup  DeliveryMode = "pickup"
	DeliveryModeCourier DeliveryMode = "courier"
)

// DeliverySpeed is the courier speed tier.
type DeliverySpeed string

const (
	DeliverySpeedRegular DeliverySpeed = "regular"
	DeliverySpeedFast    DeliverySpeed = "fast"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies within real latitude/longitude ranges.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Location is the selected delivery target: a pickup point or a courier
// destination, together with the resolved delivery zone. The mixed tag
// casing matches the wire format: the delivery catalog serves snake_case
// fields (zone_id) while the calculate/checkout payloads use camelCase
// (deliveryMode, deliverySpeed).
type Location struct {
	ID          int           `json:"id"`
	City        string        `json:"city"`
	Region      string        `json:"region"`
	Address     string        `json:"address"`
	Coordinates Coordinates   `json:"coordinates"`
	ZoneID      int           `json:"zone_id"`
	Mode        DeliveryMode  `json:"deliveryMode"`
	Speed       DeliverySpeed `json:"deliverySpeed,omitempty"`
}

// CartLine is one cart entry: a product reference plus the price snapshot
// taken when the product was added.
type CartLine struct {
	ProductID       int     `json:"id"`
	Title           string  `json:"title"`
	UnitPrice       float64 `json:"price"`
	DiscountPercent float64 `json:"discountPercentage,omitempty"`
	Quantity        int     `json:"quantity"`
	AvailableStock  int     `json:"availableQuantity"`
}

// EffectivePrice returns the unit price with the snapshotted discount applied.
func (l CartLine) EffectivePrice() float64 {
	if l.DiscountPercent <= 0 {
		return l.UnitPrice
	}
	return l.UnitPrice - l.UnitPrice*l.DiscountPercent/100
}

// TotalQuantity sums quantities across cart lines.
func TotalQuantity(lines []CartLine) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

// Discount is an active promotion attached to a product.
type Discount struct {
	ID         int     `json:"id"`
	Type       string  `json:"type"`
	Percentage float64 `json:"percentage"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
}

// Product is a catalog entry.
type Product struct {
	ID                int       `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	Price             float64   `json:"price"`
	Images            []string  `json:"images,omitempty"`
	Purchases         int       `json:"purchases"`
	AvailableQuantity int       `json:"availableQuantity"`
	Discount          *Discount `json:"discount,omitempty"`
}

// Line snapshots the product into a cart line with the given quantity.
func (p Product) Line(quantity int) CartLine {
	line := CartLine{
		ProductID:      p.ID,
		Title:          p.Title,
		UnitPrice:      p.Price,
		Quantity:       quantity,
		AvailableStock: p.AvailableQuantity,
	}
	if p.Discount != nil {
		line.DiscountPercent = p.Discount.Percentage
	}
	return line
}

// FavoriteProduct is a catalog entry on the user's favorites list.
type FavoriteProduct struct {
	Product
	DateAdded string `json:"date_added"`
}

// Review is one product review.
type Review struct {
	ID         int      `json:"id"`
	Text       string   `json:"text"`
	Rating     int      `json:"rating"`
	UserID     int      `json:"user_id"`
	MediaURLs  []string `json:"media_urls,omitempty"`
	UserName   string   `json:"user_name,omitempty"`
	UserAvatar string   `json:"user_avatar,omitempty"`
	CreatedAt  string   `json:"created_at"`
	OrderID    int      `json:"order_id"`
}

// ProductEstimate is one entry of a delivery time calculation response.
type ProductEstimate struct {
	ProductID    int `json:"productId"`
	DeliveryDays int `json:"deliveryDays"`
}

// DeliveryPoint is a pickup point as served by the delivery catalog.
type DeliveryPoint struct {
	ID           int     `json:"id"`
	City         string  `json:"city"`
	Address      string  `json:"address"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	DeliveryDays int     `json:"delivery_days"`
	ZoneID       int     `json:"zone_id"`
	ZoneName     string  `json:"zone_name"`
}

// DeliveryZone groups pickup points sharing a base delivery time.
type DeliveryZone struct {
	ID               int             `json:"id"`
	Name             string          `json:"name"`
	BaseDeliveryDays int             `json:"baseDeliveryDays"`
	DeliveryPoints   []DeliveryPoint `json:"deliveryPoints"`
}

// User is the authenticated account as returned by the auth endpoints.
type User struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// OrderProduct is one purchased product within an order history entry.
type OrderProduct struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image,omitempty"`
}

// Order is one entry of the user's purchase history.
type Order struct {
	OrderID     int            `json:"order_id"`
	OrderNumber int            `json:"order_number"`
	Date        time.Time      `json:"date"`
	Currency    string         `json:"currency"`
	Products    []OrderProduct `json:"products"`
	Total       float64        `json:"total"`
	Status      string         `json:"status"`
}
