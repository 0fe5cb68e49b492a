package option

import (
	"github.com/smallbiznis/eshop/pkg/db/pagination"
	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type QueryOptionFunc func(*gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

// Keyset orders by column DESC, id DESC, resumes after pos and fetches limit+1
// rows so the caller can tell whether another page exists.
func Keyset(table, column string, pos *pagination.Position, limit int) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		col := table + "." + column
		id := table + ".id"
		if pos != nil {
			db = db.Where("("+col+" < ?) OR ("+col+" = ? AND "+id+" < ?)", pos.At, pos.At, pos.ID)
		}
		db = db.Order(col + " DESC").Order(id + " DESC")
		if limit > 0 {
			db = db.Limit(limit + 1)
		}
		return db
	})
}

// Apply runs every option against the statement in order.
func Apply(db *gorm.DB, opts ...QueryOption) *gorm.DB {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		db = opt.Apply(db)
	}
	return db
}
