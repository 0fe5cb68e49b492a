package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eshop/internal/lineitem/domain"
	"github.com/smallbiznis/eshop/pkg/db/option"
	"github.com/smallbiznis/eshop/pkg/db/sqlutil"
	"gorm.io/gorm"
)

const selectColumns = `id, order_id, item_name, quantity, price_without_tax, tax_name, tax_amount, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, item *domain.LineItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO line_items (`+selectColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.OrderID,
		item.ItemName,
		item.Quantity,
		item.PriceWithoutTax,
		item.TaxName,
		item.TaxAmount,
		item.CreatedAt,
		item.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.LineItem, error) {
	var item domain.LineItem
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM line_items WHERE id = ?`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, nil
	}
	return &item, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*domain.LineItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []*domain.LineItem
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM line_items WHERE id IN ?`,
		ids,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindByOrderID returns the order's items in id order.
func (r *repo) FindByOrderID(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.LineItem, error) {
	var items []domain.LineItem
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM line_items WHERE order_id = ? ORDER BY id ASC`,
		orderID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByOrderIDs(ctx context.Context, db *gorm.DB, orderIDs []snowflake.ID) (map[snowflake.ID][]domain.LineItem, error) {
	out := make(map[snowflake.ID][]domain.LineItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	var items []domain.LineItem
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM line_items WHERE order_id IN ? ORDER BY order_id ASC, id ASC`,
		orderIDs,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	return out, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, item *domain.LineItem) error {
	return db.WithContext(ctx).Exec(
		`UPDATE line_items
		 SET order_id = ?, item_name = ?, quantity = ?, price_without_tax = ?,
		     tax_name = ?, tax_amount = ?, updated_at = ?
		 WHERE id = ?`,
		item.OrderID,
		item.ItemName,
		item.Quantity,
		item.PriceWithoutTax,
		item.TaxName,
		item.TaxAmount,
		item.UpdatedAt,
		item.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM line_items WHERE id = ?`, id).Error
}

func (r *repo) DeleteByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	return db.WithContext(ctx).Exec(`DELETE FROM line_items WHERE id IN ?`, ids).Error
}

func (r *repo) DeleteByOrderID(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM line_items WHERE order_id = ?`, orderID).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.LineItem, error) {
	var items []*domain.LineItem
	stmt := db.WithContext(ctx).Model(&domain.LineItem{})
	if filter.OrderID != nil {
		stmt = stmt.Where("line_items.order_id = ?", *filter.OrderID)
	}
	if filter.ItemName != "" {
		stmt = stmt.Where("LOWER(line_items.item_name) LIKE ? ESCAPE '!'", sqlutil.ContainsPattern(filter.ItemName))
	}
	stmt = option.Apply(stmt, option.Keyset("line_items", "created_at", filter.Cursor, filter.Limit))
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
