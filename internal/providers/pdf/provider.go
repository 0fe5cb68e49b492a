package pdf

import (
	"context"
	"io"

	orderdomain "github.com/smallbiznis/eshop/internal/order/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("pdf",
	fx.Provide(New),
)

// Provider renders printable documents for purchasing records.
type Provider interface {
	GeneratePurchaseOrder(ctx context.Context, order orderdomain.Response) (io.Reader, error)
}
