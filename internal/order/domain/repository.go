package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eshop/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	SupplierName string
	ItemName     string
	Cursor       *pagination.Position
	Limit        int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	Update(ctx context.Context, db *gorm.DB, order *Order) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Order, error)
	NextOrderNumber(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}
