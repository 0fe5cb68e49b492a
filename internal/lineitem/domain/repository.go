package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eshop/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	OrderID  *snowflake.ID
	ItemName string
	Cursor   *pagination.Position
	Limit    int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, item *LineItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*LineItem, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*LineItem, error)
	FindByOrderID(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]LineItem, error)
	FindByOrderIDs(ctx context.Context, db *gorm.DB, orderIDs []snowflake.ID) (map[snowflake.ID][]LineItem, error)
	Update(ctx context.Context, db *gorm.DB, item *LineItem) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	DeleteByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error
	DeleteByOrderID(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*LineItem, error)
}
