package domain

import (
	"context"
	"errors"
	"fmt"

	lineitemdomain "github.com/smallbiznis/eshop/internal/lineitem/domain"
	supplierdomain "github.com/smallbiznis/eshop/internal/supplier/domain"
	"github.com/smallbiznis/eshop/pkg/db/pagination"
)

type SupplierInput struct {
	ID    *string `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
}

func (in SupplierInput) Upsert() supplierdomain.UpsertInput {
	return supplierdomain.UpsertInput{ID: in.ID, Name: in.Name, Email: in.Email}
}

type CreateOrderRequest struct {
	Supplier  *SupplierInput
	LineItems []lineitemdomain.Input
}

// UpdateOrderRequest describes a PUT or PATCH. A nil Supplier or a nil
// LineItems slice means "unchanged" and is only accepted when Partial is set.
// A non-nil empty LineItems slice removes every item.
type UpdateOrderRequest struct {
	ID        string
	Partial   bool
	Supplier  *SupplierInput
	LineItems []lineitemdomain.Input
}

type ListOrderRequest struct {
	PageToken    string
	PageSize     int
	SupplierName string
	ItemName     string
}

type ListOrderResponse struct {
	pagination.PageInfo
	Orders []Response `json:"orders"`
}

type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (Response, error)
	Get(ctx context.Context, id string) (Response, error)
	List(ctx context.Context, req ListOrderRequest) (ListOrderResponse, error)
	Update(ctx context.Context, req UpdateOrderRequest) (Response, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrMissingSupplier    = errors.New("missing_supplier")
	ErrMissingLineItems   = errors.New("missing_line_items")
	ErrTooManyLineItems   = errors.New("too_many_line_items")
	ErrDuplicateLineItem  = errors.New("duplicate_line_item")
	ErrAmountOutOfRange   = errors.New("amount_out_of_range")
	ErrQuantityOutOfRange = errors.New("quantity_out_of_range")
	ErrLineItemNotOwned   = errors.New("line_item_not_owned")
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidPageToken   = errors.New("invalid_page_token")
	ErrNotFound           = errors.New("not_found")
)

// LineItemError ties a line-item failure to its position in the payload.
type LineItemError struct {
	Index int
	Err   error
}

func (e *LineItemError) Error() string {
	return fmt.Sprintf("line_items[%d]: %v", e.Index, e.Err)
}

func (e *LineItemError) Unwrap() error {
	return e.Err
}
