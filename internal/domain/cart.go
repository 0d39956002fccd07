package domain

type CartItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Image    string `json:"image,omitempty"`
	Slug     string `json:"slug,omitempty"`
	Stock    int    `json:"stock"`
	Quantity int    `json:"quantity"`
}

// CartState is persisted as a whole snapshot; totals are always recomputed
// from the items, never patched incrementally.
type CartState struct {
	Items         []CartItem `json:"items"`
	TotalQuantity int        `json:"total_quantity"`
	TotalAmount   int64      `json:"total_amount"`
}

func (c CartState) IsEmpty() bool {
	return len(c.Items) == 0
}
