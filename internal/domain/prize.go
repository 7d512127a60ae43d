package domain

type Prize struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Images          []string `json:"images"`
	EquivalentPrice float64  `json:"equivalentPrice"`
	DrawnNumber     string   `json:"drawnNumber,omitempty"`
}
