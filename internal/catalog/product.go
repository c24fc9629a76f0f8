package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CategoryRef is the category summary embedded in listing payloads.
type CategoryRef struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// OptionRef is a variant-option summary embedded in listing payloads.
type OptionRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Product is one entry of the shop listing.
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	OldPrice      *decimal.Decimal `json:"old_price"`
	Discount      *decimal.Decimal `json:"discount"`
	Description   string           `json:"description_1"`
	Image         string           `json:"image_1"`
	AverageRating float64          `json:"average_rating"`
	TotalReviews  int              `json:"total_reviews"`
	SalesCount    int              `json:"sales_count"`
	Categories    []CategoryRef    `json:"categories"`
	Options       []OptionRef      `json:"options"`
}

// OnSale reports whether the product carries a struck-through old price.
func (p Product) OnSale() bool {
	return p.OldPrice != nil && p.Discount != nil && !p.Discount.IsZero()
}

// Detail is the full product payload served by the detail endpoint.
type Detail struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	OldPrice      *decimal.Decimal `json:"old_price"`
	Discount      *decimal.Decimal `json:"discount"`
	Description1  string           `json:"description_1"`
	Description2  string           `json:"description_2"`
	Description3  string           `json:"description_3"`
	Image1        string           `json:"image_1"`
	Image2        string           `json:"image_2"`
	Image3        string           `json:"image_3"`
	Image4        string           `json:"image_4"`
	Image5        string           `json:"image_5"`
	Image6        string           `json:"image_6"`
	Image7        string           `json:"image_7"`
	Image8        string           `json:"image_8"`
	Image9        string           `json:"image_9"`
	Image10       string           `json:"image_10"`
	AverageRating float64          `json:"average_rating"`
	IsActive      bool             `json:"is_active"`
	SalesCount    int              `json:"sales_count"`
	Categories    []CategoryRef    `json:"categories"`
	Options       []OptionRef      `json:"options"`
	Colors        []OptionRef      `json:"color"`
	Sizes         []OptionRef      `json:"size"`
}

// Images returns the non-empty gallery images in slot order.
func (d Detail) Images() []string {
	slots := []string{
		d.Image1, d.Image2, d.Image3, d.Image4, d.Image5,
		d.Image6, d.Image7, d.Image8, d.Image9, d.Image10,
	}
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
