package domain

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const maxLabelLength = 100

const (
	// MaxQuantity bounds a single line so order totals stay within int64.
	MaxQuantity int64 = 1_000_000_000
	// MaxAmount bounds price_without_tax and tax_amount of a single line.
	MaxAmount = 1e15
)

type LineItem struct {
	ID              snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	OrderID         snowflake.ID `gorm:"not null;index" json:"order_id"`
	ItemName        string       `gorm:"type:varchar(100);not null" json:"item_name"`
	Quantity        int64        `gorm:"not null" json:"quantity"`
	PriceWithoutTax float64      `gorm:"type:double precision;not null" json:"price_without_tax"`
	TaxName         string       `gorm:"type:varchar(100);not null" json:"tax_name"`
	TaxAmount       float64      `gorm:"type:double precision;not null" json:"tax_amount"`
	CreatedAt       time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null" json:"updated_at"`
}

func (LineItem) TableName() string {
	return "line_items"
}

// LineTotal is price_without_tax + tax_amount. It is never stored.
func (l LineItem) LineTotal() float64 {
	return l.LineTotalDecimal().InexactFloat64()
}

func (l LineItem) LineTotalDecimal() decimal.Decimal {
	return decimal.NewFromFloat(l.PriceWithoutTax).Add(decimal.NewFromFloat(l.TaxAmount))
}

// Apply copies the writable fields of in onto the item.
func (l *LineItem) Apply(in Input) {
	l.ItemName = strings.TrimSpace(in.ItemName)
	l.Quantity = in.Quantity
	l.PriceWithoutTax = in.PriceWithoutTax
	l.TaxName = strings.TrimSpace(in.TaxName)
	l.TaxAmount = in.TaxAmount
}

// Input is a line-item payload. Computed fields are not part of it.
type Input struct {
	ID              *string `json:"id"`
	ItemName        string  `json:"item_name"`
	Quantity        int64   `json:"quantity"`
	PriceWithoutTax float64 `json:"price_without_tax"`
	TaxName         string  `json:"tax_name"`
	TaxAmount       float64 `json:"tax_amount"`
}

// Validate checks the payload before anything is written.
func (in Input) Validate() error {
	name := strings.TrimSpace(in.ItemName)
	if name == "" || utf8.RuneCountInString(name) > maxLabelLength {
		return ErrInvalidItemName
	}
	if in.Quantity < 0 || in.Quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	if !validAmount(in.PriceWithoutTax) {
		return ErrInvalidPriceWithoutTax
	}
	taxName := strings.TrimSpace(in.TaxName)
	if taxName == "" || utf8.RuneCountInString(taxName) > maxLabelLength {
		return ErrInvalidTaxName
	}
	if !validAmount(in.TaxAmount) {
		return ErrInvalidTaxAmount
	}
	return nil
}

func validAmount(v float64) bool {
	return v >= 0 && v <= MaxAmount && !math.IsNaN(v)
}

// Response is the read representation of a line item.
type Response struct {
	LineItem
	LineTotal float64 `json:"line_total"`
}

func NewResponse(item LineItem) Response {
	return Response{LineItem: item, LineTotal: item.LineTotal()}
}
