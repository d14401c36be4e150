package product

type ProductType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	TypeID      int     `json:"type_id"`
	Power       string  `json:"power"`
	Lifespan    string  `json:"lifespan"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Discount    float64 `json:"discount"`
}

// Seed type names, inserted on first boot when the product_types table is
// empty. The literals are the catalog values the storefront displays.
const (
	TypeLED          = "LED"
	TypeIncandescent = "лампы накаливания"
	TypeSmart        = "умные лампы"
)

// SeedTypeNames returns the fixed seed set in insertion order, which pins
// the seeded ids to 1, 2, 3 on an empty table.
func SeedTypeNames() []string {
	return []string{TypeLED, TypeIncandescent, TypeSmart}
}
