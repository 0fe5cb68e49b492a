package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eshop/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateSupplierRequest struct {
	Name  string
	Email string
}

// UpdateSupplierRequest carries a full (PUT) or partial (PATCH) update.
// Nil fields are left untouched.
type UpdateSupplierRequest struct {
	ID    string
	Name  *string
	Email *string
}

type ListSupplierRequest struct {
	PageToken string
	PageSize  int
	Name      string
}

type ListSupplierResponse struct {
	pagination.PageInfo
	Suppliers []Supplier `json:"suppliers"`
}

type Service interface {
	Create(ctx context.Context, req CreateSupplierRequest) (Supplier, error)
	GetByID(ctx context.Context, id string) (Supplier, error)
	List(ctx context.Context, req ListSupplierRequest) (ListSupplierResponse, error)
	Update(ctx context.Context, req UpdateSupplierRequest) (Supplier, error)
	Delete(ctx context.Context, id string) error
}

// Resolver creates or updates a supplier inside a transaction owned by the caller.
type Resolver interface {
	Resolve(ctx context.Context, tx *gorm.DB, in UpsertInput) (*Supplier, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]Supplier, error)
	Evict(ctx context.Context, ids ...snowflake.ID)
}

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrUnknownSupplier  = errors.New("unknown_supplier")
	ErrNotFound         = errors.New("not_found")
)
