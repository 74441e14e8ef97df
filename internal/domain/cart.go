package domain

// CartLine is one catalog item plus its quantity (always >= 1).
type CartLine struct {
	ItemID   int `json:"id"`
	Quantity int `json:"quantity"`
}
