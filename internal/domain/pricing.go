package domain

// Order pricing: a fixed base fee is always charged, and the delivery fee is
// waived once the product subtotal exceeds the free-delivery threshold.
const (
	BaseFee               int64 = 5000
	DeliveryFee           int64 = 8000
	FreeDeliveryThreshold int64 = 50000
)

type Quote struct {
	Subtotal    int64 `json:"subtotal"`
	BaseFee     int64 `json:"base_fee"`
	DeliveryFee int64 `json:"delivery_fee"`
	Total       int64 `json:"total"`
}

func PriceOrder(subtotal int64) Quote {
	q := Quote{
		Subtotal: subtotal,
		BaseFee:  BaseFee,
	}
	if subtotal <= FreeDeliveryThreshold {
		q.DeliveryFee = DeliveryFee
	}
	q.Total = q.Subtotal + q.BaseFee + q.DeliveryFee
	return q
}
