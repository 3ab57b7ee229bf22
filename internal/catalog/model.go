package catalog

// RefKind tags which backing table a product reference points at. The three
// tables are historical: menu_items is current, dishes and legacy_products
// survive from earlier versions of the storefront and still back old carts.
type RefKind string

const (
	KindMenuItem RefKind = "menu_item"
	KindDish     RefKind = "dish"
	KindLegacy   RefKind = "legacy"
)

// ProductRef is a tagged reference into one of the product tables.
type ProductRef struct {
	Kind RefKind `json:"kind"`
	ID   string  `json:"id"`
}

func (r ProductRef) Key() string {
	return string(r.Kind) + ":" + r.ID
}

type Category struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ImageURL *string `json:"image_url,omitempty"`
	Position int     `json:"position"`
}

type MenuItem struct {
	ID          string  `json:"id"`
	CategoryID  string  `json:"category_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Price       int64   `json:"price"`
	Available   bool    `json:"available"`
	ImageURL    *string `json:"image_url,omitempty"`
}

type Dish struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Price     int64   `json:"price"`
	Available bool    `json:"available"`
	ImageURL  *string `json:"image_url,omitempty"`
}

type LegacyProduct struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    int64   `json:"price"`
	Stock    int     `json:"stock"`
	ImageURL *string `json:"image_url,omitempty"`
}

// Snapshot is the denormalized product copy captured at add-to-cart time.
// Guest cart lines always carry one so checkout survives catalog changes.
type Snapshot struct {
	Name     string  `json:"name"`
	Price    int64   `json:"price"`
	ImageURL *string `json:"image_url,omitempty"`
}

// Source records which step of the fallback chain produced a resolution.
type Source string

const (
	SourceCache       Source = "cache"
	SourceLookup      Source = "lookup"
	SourceSnapshot    Source = "snapshot"
	SourcePlaceholder Source = "placeholder"
)

// ResolvedProduct is the authoritative-or-fallback product view used for
// display and pricing. Derived, never persisted.
type ResolvedProduct struct {
	Ref       ProductRef `json:"ref"`
	Name      string     `json:"name"`
	Price     int64      `json:"price"`
	Available bool       `json:"available"`
	Stock     *int       `json:"stock,omitempty"`
	ImageURL  *string    `json:"image_url,omitempty"`
	Source    Source     `json:"source"`
}
