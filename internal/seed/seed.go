// Package seed writes sample purchasing data through the order service so
// the stored rows satisfy the same rules as API writes.
package seed

import (
	"context"
	"errors"
	"fmt"

	lineitemdomain "github.com/smallbiznis/eshop/internal/lineitem/domain"
	orderdomain "github.com/smallbiznis/eshop/internal/order/domain"
	"go.uber.org/zap"
)

type Options struct {
	Suppliers         int
	OrdersPerSupplier int
	ItemsPerOrder     int
}

type Result struct {
	Suppliers int
	Orders    int
	LineItems int
}

// Populate creates opts.Suppliers suppliers, each with OrdersPerSupplier
// orders of ItemsPerOrder line items. The first order of a supplier creates
// it; later orders reference it by id.
func Populate(ctx context.Context, orders orderdomain.Service, log *zap.Logger, opts Options) (Result, error) {
	if orders == nil {
		return Result{}, errors.New("seed order service is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Suppliers < 0 || opts.OrdersPerSupplier < 1 || opts.ItemsPerOrder < 1 {
		return Result{}, fmt.Errorf("invalid seed options: %+v", opts)
	}

	var res Result
	for s := 1; s <= opts.Suppliers; s++ {
		supplier := &orderdomain.SupplierInput{
			Name:  fmt.Sprintf("Supplier %d", s),
			Email: fmt.Sprintf("supplier%d@email.com", s),
		}

		for o := 1; o <= opts.OrdersPerSupplier; o++ {
			order, err := orders.Create(ctx, orderdomain.CreateOrderRequest{
				Supplier:  supplier,
				LineItems: sampleItems(opts.ItemsPerOrder),
			})
			if err != nil {
				return res, fmt.Errorf("seed supplier %d order %d: %w", s, o, err)
			}
			if o == 1 {
				id := order.Supplier.ID.String()
				supplier = &orderdomain.SupplierInput{ID: &id, Name: order.Supplier.Name, Email: order.Supplier.Email}
				res.Suppliers++
			}
			res.Orders++
			res.LineItems += len(order.LineItems)

			log.Debug("seeded order",
				zap.String("order_id", order.ID.String()),
				zap.Int64("order_number", order.OrderNumber),
				zap.Float64("total_amount", order.TotalAmount),
			)
		}
	}

	log.Info("sample data populated",
		zap.Int("suppliers", res.Suppliers),
		zap.Int("orders", res.Orders),
		zap.Int("line_items", res.LineItems),
	)
	return res, nil
}

func sampleItems(n int) []lineitemdomain.Input {
	items := make([]lineitemdomain.Input, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, lineitemdomain.Input{
			ItemName:        fmt.Sprintf("Item %d", i),
			Quantity:        int64(5 * i),
			PriceWithoutTax: 20,
			TaxName:         "VAT",
			TaxAmount:       2,
		})
	}
	return items
}
