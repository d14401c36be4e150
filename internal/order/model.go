package order

import "time"

type Item struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"order_id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type Order struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	TotalAmount    float64        `json:"total_amount"`
	Status         Status         `json:"status"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	PaymentMethod  PaymentMethod  `json:"payment_method"`
	CreatedAt      time.Time      `json:"created_at"`
	Items          []Item         `json:"items"`
}

// Total computes the order amount from its items. Client-supplied totals
// are never trusted; this is the only place the amount comes from.
func Total(items []Item) float64 {
	total := 0.0
	for _, it := range items {
		total += float64(it.Quantity) * it.Price
	}
	return total
}
