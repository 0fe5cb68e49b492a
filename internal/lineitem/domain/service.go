package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/eshop/pkg/db/pagination"
)

type CreateLineItemRequest struct {
	OrderID string
	Input
}

// UpdateLineItemRequest carries a full (PUT) or partial (PATCH) update.
// Nil fields are left untouched.
type UpdateLineItemRequest struct {
	ID              string
	OrderID         *string
	ItemName        *string
	Quantity        *int64
	PriceWithoutTax *float64
	TaxName         *string
	TaxAmount       *float64
}

type ListLineItemRequest struct {
	PageToken string
	PageSize  int
	OrderID   string
	ItemName  string
}

type ListLineItemResponse struct {
	pagination.PageInfo
	LineItems []Response `json:"line_items"`
}

type Service interface {
	Create(ctx context.Context, req CreateLineItemRequest) (Response, error)
	GetByID(ctx context.Context, id string) (Response, error)
	List(ctx context.Context, req ListLineItemRequest) (ListLineItemResponse, error)
	Update(ctx context.Context, req UpdateLineItemRequest) (Response, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidItemName        = errors.New("invalid_item_name")
	ErrInvalidQuantity        = errors.New("invalid_quantity")
	ErrInvalidPriceWithoutTax = errors.New("invalid_price_without_tax")
	ErrInvalidTaxName         = errors.New("invalid_tax_name")
	ErrInvalidTaxAmount       = errors.New("invalid_tax_amount")
	ErrInvalidOrder           = errors.New("invalid_order")
	ErrInvalidID              = errors.New("invalid_id")
	ErrInvalidPageToken       = errors.New("invalid_page_token")
	ErrNotFound               = errors.New("not_found")
)
