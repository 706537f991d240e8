package menus

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DateLayout   = "2006-01-02"
	MaxItems     = 50
	MaxRangeDays = 366
)

type ItemRequest struct {
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	Category     string          `json:"category" binding:"required"`
	Price        decimal.Decimal `json:"price"`
	IsVegetarian *bool           `json:"is_vegetarian,omitempty"` // 未指定なら true
	IsAvailable  *bool           `json:"is_available,omitempty"`  // 未指定なら true
}

type CreateMenuRequest struct {
	Date  string        `json:"date" binding:"required"` // "YYYY-MM-DD" or "today"
	Items []ItemRequest `json:"items" binding:"dive"`
	Notes string        `json:"notes"`
}

// nil のフィールドは変更しない。Items は丸ごと置き換え
type UpdateMenuRequest struct {
	Date  *string        `json:"date,omitempty"`
	Items *[]ItemRequest `json:"items,omitempty"`
	Notes *string        `json:"notes,omitempty"`
}

type ItemResponse struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	IsVegetarian bool            `json:"is_vegetarian"`
	IsAvailable  bool            `json:"is_available"`
}

type MenuResponse struct {
	MenuID    string         `json:"menu_id"`
	Date      string         `json:"date"`
	Notes     string         `json:"notes"`
	CreatedBy string         `json:"created_by"`
	Items     []ItemResponse `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
