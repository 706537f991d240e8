package menus

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryBreakfast = "breakfast"
	CategoryLunch     = "lunch"
	CategoryDinner    = "dinner"
	CategorySnacks    = "snacks"
)

var categories = map[string]struct{}{
	CategoryBreakfast: {},
	CategoryLunch:     {},
	CategoryDinner:    {},
	CategorySnacks:    {},
}

type Item struct {
	Name         string
	Description  string
	Category     string
	Price        decimal.Decimal
	IsVegetarian bool
	IsAvailable  bool
}

type Menu struct {
	ID        string
	Date      string // YYYY-MM-DD
	Notes     string
	CreatedBy string
	Items     []Item
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m Menu) toDTO() MenuResponse {
	out := MenuResponse{
		MenuID:    m.ID,
		Date:      m.Date,
		Notes:     m.Notes,
		CreatedBy: m.CreatedBy,
		Items:     make([]ItemResponse, 0, len(m.Items)),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
	for _, it := range m.Items {
		out.Items = append(out.Items, ItemResponse{
			Name:         it.Name,
			Description:  it.Description,
			Category:     it.Category,
			Price:        it.Price,
			IsVegetarian: it.IsVegetarian,
			IsAvailable:  it.IsAvailable,
		})
	}
	return out
}
