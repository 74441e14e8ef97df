package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CatalogItem is a menu entry. Prices are denominated in the base currency.
type CatalogItem struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
}

// Catalog is an immutable, ordered list of items seeded at startup.
type Catalog struct {
	items []CatalogItem
	byID  map[int]int
}

// NewCatalog copies items into a catalog. Duplicate ids keep the first entry.
func NewCatalog(items []CatalogItem) *Catalog {
	c := &Catalog{
		items: make([]CatalogItem, 0, len(items)),
		byID:  make(map[int]int, len(items)),
	}
	for _, it := range items {
		if _, dup := c.byID[it.ID]; dup {
			continue
		}
		c.byID[it.ID] = len(c.items)
		c.items = append(c.items, it)
	}
	return c
}

// Items returns a copy of all items in catalog order.
func (c *Catalog) Items() []CatalogItem {
	out := make([]CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}

// Lookup finds an item by id.
func (c *Catalog) Lookup(id int) (CatalogItem, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return CatalogItem{}, false
	}
	return c.items[idx], true
}

// Filter returns items in the given category ("" or "all" matches every
// category) whose name or description contains search, case-insensitively.
func (c *Catalog) Filter(category, search string) []CatalogItem {
	category = strings.ToLower(strings.TrimSpace(category))
	search = strings.ToLower(strings.TrimSpace(search))

	out := make([]CatalogItem, 0, len(c.items))
	for _, it := range c.items {
		if category != "" && category != "all" && it.Category != category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(it.Name), search) &&
			!strings.Contains(strings.ToLower(it.Description), search) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// DefaultCatalog returns the built-in menu.
func DefaultCatalog() *Catalog {
	const img = "https://images.unsplash.com/"
	return NewCatalog([]CatalogItem{
		{ID: 1, Name: "Classic Burger", Category: "burger", Description: "Juicy beef patty with lettuce, tomato, and special sauce", Price: decimal.RequireFromString("12.99"), Image: img + "photo-1568901346375-23c9450c58cd"},
		{ID: 2, Name: "Margherita Pizza", Category: "pizza", Description: "Fresh mozzarella, tomatoes, and basil on crispy crust", Price: decimal.RequireFromString("18.99"), Image: img + "photo-1546069901-ba9599a7e63c"},
		{ID: 3, Name: "Sushi Roll", Category: "sushi", Description: "Fresh salmon, avocado, and cucumber roll", Price: decimal.RequireFromString("16.99"), Image: img + "photo-1579871494447-9811cf80d66c"},
		{ID: 4, Name: "Pad Thai", Category: "thai", Description: "Stir-fried rice noodles with shrimp and peanuts", Price: decimal.RequireFromString("14.99"), Image: img + "photo-1551024709-8f23befc6f87"},
		{ID: 5, Name: "Buddha Bowl", Category: "healthy", Description: "Healthy quinoa bowl with fresh vegetables", Price: decimal.RequireFromString("13.99"), Image: img + "photo-1540189549336-e6e99c3679fe"},
		{ID: 6, Name: "Chocolate Cake", Category: "dessert", Description: "Rich chocolate layer cake with ganache", Price: decimal.RequireFromString("8.99"), Image: img + "photo-1565299585323-38d6b0865b47"},
		{ID: 7, Name: "Cheeseburger", Category: "burger", Description: "Classic burger with melted cheddar cheese", Price: decimal.RequireFromString("14.99"), Image: img + "photo-1572802419224-296b0aeee0d9"},
		{ID: 8, Name: "Pepperoni Pizza", Category: "pizza", Description: "Classic pepperoni with mozzarella cheese", Price: decimal.RequireFromString("19.99"), Image: img + "photo-1628840042765-356cda07504e"},
	})
}
