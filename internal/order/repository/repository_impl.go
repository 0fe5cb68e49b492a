package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eshop/internal/order/domain"
	"github.com/smallbiznis/eshop/pkg/db/option"
	"github.com/smallbiznis/eshop/pkg/db/sqlutil"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (id, supplier_id, order_number, order_time, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.SupplierID,
		order.OrderNumber,
		order.OrderTime,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, supplier_id, order_number, order_time, created_at, updated_at
		 FROM orders WHERE id = ?`,
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

// FindByIDForUpdate locks the order row for the rest of the transaction.
// SQLite serialises writers instead and the dialector drops the clause.
func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var orders []domain.Order
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}

// Update persists the mutable columns. order_number and order_time are never written.
func (r *repo) Update(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET supplier_id = ?, updated_at = ? WHERE id = ?`,
		order.SupplierID,
		order.UpdatedAt,
		order.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM orders WHERE id = ?`, id).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Order, error) {
	var orders []*domain.Order
	stmt := db.WithContext(ctx).Model(&domain.Order{}).Select("orders.*")
	if filter.SupplierName != "" {
		stmt = stmt.
			Joins("JOIN suppliers ON suppliers.id = orders.supplier_id").
			Where("LOWER(suppliers.name) LIKE ? ESCAPE '!'", sqlutil.ContainsPattern(filter.SupplierName))
	}
	if filter.ItemName != "" {
		stmt = stmt.Where(
			`EXISTS (SELECT 1 FROM line_items
			 WHERE line_items.order_id = orders.id
			 AND LOWER(line_items.item_name) LIKE ? ESCAPE '!')`,
			sqlutil.ContainsPattern(filter.ItemName),
		)
	}
	stmt = option.Apply(stmt, option.Keyset("orders", "order_time", filter.Cursor, filter.Limit))
	if err := stmt.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// NextOrderNumber advances the shared counter and returns the value it held.
// It must run inside the transaction that inserts the order so a rollback
// gives the number back.
func (r *repo) NextOrderNumber(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	stmt := db.WithContext(ctx)
	res := stmt.Exec(
		`UPDATE order_number_sequences SET next_value = next_value + 1, updated_at = ? WHERE name = ?`,
		now,
		domain.OrderNumberSequenceName,
	)
	if res.Error != nil {
		return 0, fmt.Errorf("advance order number: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		err := stmt.Exec(
			`INSERT INTO order_number_sequences (name, next_value, updated_at) VALUES (?, ?, ?)`,
			domain.OrderNumberSequenceName,
			2,
			now,
		).Error
		if err != nil {
			return 0, fmt.Errorf("seed order number sequence: %w", err)
		}
		return 1, nil
	}

	var next int64
	err := stmt.Raw(
		`SELECT next_value FROM order_number_sequences WHERE name = ?`,
		domain.OrderNumberSequenceName,
	).Scan(&next).Error
	if err != nil {
		return 0, fmt.Errorf("read order number: %w", err)
	}
	return next - 1, nil
}
