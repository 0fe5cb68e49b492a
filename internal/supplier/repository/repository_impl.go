package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eshop/internal/supplier/domain"
	"github.com/smallbiznis/eshop/pkg/db/option"
	"github.com/smallbiznis/eshop/pkg/db/sqlutil"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, supplier *domain.Supplier) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO suppliers (id, name, email, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		supplier.ID,
		supplier.Name,
		supplier.Email,
		supplier.CreatedAt,
		supplier.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Supplier, error) {
	var supplier domain.Supplier
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, created_at, updated_at
		 FROM suppliers WHERE id = ?`,
		id,
	).Scan(&supplier).Error
	if err != nil {
		return nil, err
	}
	if supplier.ID == 0 {
		return nil, nil
	}
	return &supplier, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]*domain.Supplier, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var suppliers []*domain.Supplier
	err := db.WithContext(ctx).
		Model(&domain.Supplier{}).
		Where("id IN ?", ids).
		Find(&suppliers).Error
	if err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, supplier *domain.Supplier) error {
	return db.WithContext(ctx).Exec(
		`UPDATE suppliers SET name = ?, email = ?, updated_at = ? WHERE id = ?`,
		supplier.Name,
		supplier.Email,
		supplier.UpdatedAt,
		supplier.ID,
	).Error
}

// Delete removes the supplier together with its orders and their line items.
func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	stmt := db.WithContext(ctx)
	if err := stmt.Exec(
		`DELETE FROM line_items WHERE order_id IN (SELECT id FROM orders WHERE supplier_id = ?)`,
		id,
	).Error; err != nil {
		return err
	}
	if err := stmt.Exec(`DELETE FROM orders WHERE supplier_id = ?`, id).Error; err != nil {
		return err
	}
	return stmt.Exec(`DELETE FROM suppliers WHERE id = ?`, id).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Supplier, error) {
	var suppliers []*domain.Supplier
	stmt := db.WithContext(ctx).Model(&domain.Supplier{})
	if filter.Name != "" {
		stmt = stmt.Where("LOWER(suppliers.name) LIKE ? ESCAPE '!'", sqlutil.ContainsPattern(filter.Name))
	}
	stmt = option.Apply(stmt, option.Keyset("suppliers", "created_at", filter.Cursor, filter.Limit))
	if err := stmt.Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}
