package domain

// Product is a catalog entry as seen by the matcher. Optional document fields
// are resolved to their defaults before a Product is built, so every field is
// always safe to read.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Featured    bool    `json:"featured"`
	Brand       string  `json:"brand,omitempty"`
	Price       float64 `json:"price,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// Key returns the identity used to aggregate a product across concerns.
// Falls back to the name when the document carries no identifier.
func (p Product) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return p.Name
}

// ScoredCandidate is a product with its relevance score for one concern
type ScoredCandidate struct {
	Product Product `json:"product"`
	Score   float64 `json:"score"`
}

// MultiConcernMatch is a product ranked against several detected concerns at once
type MultiConcernMatch struct {
	Product           Product  `json:"product"`
	AddressedConcerns []string `json:"addressedConcerns"`
	Score             float64  `json:"score"`
}
