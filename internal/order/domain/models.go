package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	lineitemdomain "github.com/smallbiznis/eshop/internal/lineitem/domain"
	supplierdomain "github.com/smallbiznis/eshop/internal/supplier/domain"
)

// OrderNumberSequenceName is the counter row orders draw their numbers from.
const OrderNumberSequenceName = "order_number"

type Order struct {
	ID          snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	SupplierID  snowflake.ID `gorm:"not null;index" json:"supplier_id"`
	OrderNumber int64        `gorm:"not null;uniqueIndex" json:"order_number"`
	OrderTime   time.Time    `gorm:"not null;index" json:"order_time"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderNumberSequence struct {
	Name      string    `gorm:"primaryKey;type:varchar(64)"`
	NextValue int64     `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (OrderNumberSequence) TableName() string {
	return "order_number_sequences"
}

// Response is the assembled read representation of an order.
type Response struct {
	ID            snowflake.ID              `json:"id"`
	OrderNumber   int64                     `json:"order_number"`
	OrderTime     time.Time                 `json:"order_time"`
	Supplier      supplierdomain.Supplier   `json:"supplier"`
	LineItems     []lineitemdomain.Response `json:"line_items"`
	TotalQuantity int64                     `json:"total_quantity"`
	TotalAmount   float64                   `json:"total_amount"`
	TotalTax      float64                   `json:"total_tax"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

// Assemble builds the representation of order from its supplier and current items.
func Assemble(order Order, supplier supplierdomain.Supplier, items []lineitemdomain.LineItem) Response {
	totals := ComputeTotals(items)
	lines := make([]lineitemdomain.Response, 0, len(items))
	for _, item := range items {
		lines = append(lines, lineitemdomain.NewResponse(item))
	}
	return Response{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		OrderTime:     order.OrderTime,
		Supplier:      supplier,
		LineItems:     lines,
		TotalQuantity: totals.Quantity,
		TotalAmount:   totals.Amount,
		TotalTax:      totals.Tax,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
}
