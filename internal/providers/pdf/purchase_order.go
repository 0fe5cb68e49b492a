package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	orderdomain "github.com/smallbiznis/eshop/internal/order/domain"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GeneratePurchaseOrder(ctx context.Context, order orderdomain.Response) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Purchase Order", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New(fmt.Sprintf("Order number: %d", order.OrderNumber), props.Text{Top: 0}),
			text.New("Order time: "+order.OrderTime.UTC().Format(time.RFC1123), props.Text{Top: 4}),
			text.New("Reference: "+order.ID.String(), props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New("Supplier", props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New(order.Supplier.Name, props.Text{Top: 5, Align: align.Right}),
			text.New(order.Supplier.Email, props.Text{Top: 9, Align: align.Right}),
		),
	)

	header := props.Text{Style: fontstyle.Bold, Size: 9}
	headerRight := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}
	m.AddRow(10,
		text.NewCol(4, "Item", header),
		text.NewCol(1, "Qty", headerRight),
		text.NewCol(2, "Price", headerRight),
		text.NewCol(2, "Tax", headerRight),
		text.NewCol(3, "Line total", headerRight),
	)
	m.AddRow(2, line.NewCol(12))

	cell := props.Text{Size: 9}
	cellRight := props.Text{Size: 9, Align: align.Right}
	for _, item := range order.LineItems {
		m.AddRow(8,
			text.NewCol(4, item.ItemName, cell),
			text.NewCol(1, fmt.Sprintf("%d", item.Quantity), cellRight),
			text.NewCol(2, money(item.PriceWithoutTax), cellRight),
			text.NewCol(2, item.TaxName+" "+money(item.TaxAmount), cellRight),
			text.NewCol(3, money(item.LineTotal), cellRight),
		)
	}
	m.AddRow(2, line.NewCol(12))

	m.AddRow(8,
		col.New(7),
		text.NewCol(2, "Total quantity", cell),
		text.NewCol(3, fmt.Sprintf("%d", order.TotalQuantity), cellRight),
	)
	m.AddRow(8,
		col.New(7),
		text.NewCol(2, "Total tax", cell),
		text.NewCol(3, money(order.TotalTax), cellRight),
	)
	m.AddRow(8,
		col.New(7),
		text.NewCol(2, "Total amount", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, money(order.TotalAmount), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render purchase order %s: %w", order.ID, err)
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
