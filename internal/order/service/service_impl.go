package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eshop/internal/clock"
	"github.com/smallbiznis/eshop/internal/config"
	"github.com/smallbiznis/eshop/internal/events"
	lineitemdomain "github.com/smallbiznis/eshop/internal/lineitem/domain"
	"github.com/smallbiznis/eshop/internal/observability/metrics"
	"github.com/smallbiznis/eshop/internal/observability/tracing"
	"github.com/smallbiznis/eshop/internal/order/domain"
	supplierdomain "github.com/smallbiznis/eshop/internal/supplier/domain"
	"github.com/smallbiznis/eshop/pkg/db"
	"github.com/smallbiznis/eshop/pkg/db/pagination"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	LineItems lineitemdomain.Repository
	Suppliers supplierdomain.Resolver
	Policy    *config.PolicyHolder
	Metrics   *metrics.Metrics `optional:"true"`
	Events    *events.Emitter  `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	lineItems lineitemdomain.Repository
	suppliers supplierdomain.Resolver
	policy    *config.PolicyHolder
	metrics   *metrics.Metrics
	events    *events.Emitter
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("order.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		lineItems: p.LineItems,
		suppliers: p.Suppliers,
		policy:    p.Policy,
		metrics:   p.Metrics,
		events:    p.Events,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (domain.Response, error) {
	ctx, span := tracing.StartSpan(ctx, "order.create")
	defer span.End()

	if req.Supplier == nil {
		return domain.Response{}, domain.ErrMissingSupplier
	}
	if len(req.LineItems) == 0 {
		return domain.Response{}, domain.ErrMissingLineItems
	}
	if err := s.validateLineItems(req.LineItems); err != nil {
		return domain.Response{}, err
	}

	var (
		result domain.Response
		stats  reconcileStats
	)
	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		supplier, err := s.suppliers.Resolve(ctx, tx, req.Supplier.Upsert())
		if err != nil {
			return err
		}

		number, err := s.repo.NextOrderNumber(ctx, tx, now)
		if err != nil {
			return err
		}

		order := domain.Order{
			ID:          s.genID.Generate(),
			SupplierID:  supplier.ID,
			OrderNumber: number,
			OrderTime:   now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Insert(ctx, tx, &order); err != nil {
			return err
		}

		items, st, err := s.reconcileLineItems(ctx, tx, order.ID, nil, req.LineItems, now)
		if err != nil {
			return err
		}
		stats = st

		result = domain.Assemble(order, *supplier, items)
		return nil
	})
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		if db.IsDuplicateKeyErr(err) {
			s.log.Error("order number collision", zap.Error(err))
		}
		return domain.Response{}, err
	}

	s.afterWrite(ctx, events.OrderCreated, metrics.OperationCreate, result, stats, result.Supplier.ID)
	s.log.Info("order created",
		zap.String("order_id", result.ID.String()),
		zap.Int64("order_number", result.OrderNumber),
		zap.Int("line_items", len(result.LineItems)),
	)
	return result, nil
}

func (s *Service) Get(ctx context.Context, value string) (domain.Response, error) {
	id, err := parseID(value)
	if err != nil {
		return domain.Response{}, err
	}

	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Response{}, err
	}
	if order == nil {
		return domain.Response{}, domain.ErrNotFound
	}
	return s.assemble(ctx, s.db, *order)
}

func (s *Service) List(ctx context.Context, req domain.ListOrderRequest) (domain.ListOrderResponse, error) {
	cursor, err := pagination.DecodePosition(req.PageToken)
	if err != nil {
		return domain.ListOrderResponse{}, domain.ErrInvalidPageToken
	}

	pageSize := s.policy.Get().PageSize(req.PageSize)
	orders, err := s.repo.List(ctx, s.db, domain.ListFilter{
		SupplierName: strings.TrimSpace(req.SupplierName),
		ItemName:     strings.TrimSpace(req.ItemName),
		Cursor:       cursor,
		Limit:        pageSize,
	})
	if err != nil {
		return domain.ListOrderResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(orders, int32(pageSize), func(o *domain.Order) string {
		return pagination.EncodePosition(int64(o.ID), o.OrderTime)
	})
	if len(orders) > pageSize {
		orders = orders[:pageSize]
	}

	orderIDs := make([]snowflake.ID, 0, len(orders))
	supplierIDs := make([]snowflake.ID, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		supplierIDs = append(supplierIDs, o.SupplierID)
	}

	suppliers, err := s.suppliers.FindByIDs(ctx, s.db, supplierIDs)
	if err != nil {
		return domain.ListOrderResponse{}, err
	}
	items, err := s.lineItems.FindByOrderIDs(ctx, s.db, orderIDs)
	if err != nil {
		return domain.ListOrderResponse{}, err
	}

	out := make([]domain.Response, 0, len(orders))
	for _, o := range orders {
		out = append(out, domain.Assemble(*o, suppliers[o.SupplierID], items[o.ID]))
	}
	return domain.ListOrderResponse{PageInfo: *pageInfo, Orders: out}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateOrderRequest) (domain.Response, error) {
	ctx, span := tracing.StartSpan(ctx, "order.update", attribute.Bool("partial", req.Partial))
	defer span.End()

	id, err := parseID(req.ID)
	if err != nil {
		return domain.Response{}, err
	}
	if !req.Partial {
		if req.Supplier == nil {
			return domain.Response{}, domain.ErrMissingSupplier
		}
		if req.LineItems == nil {
			return domain.Response{}, domain.ErrMissingLineItems
		}
	}
	if req.LineItems != nil {
		if err := s.validateLineItems(req.LineItems); err != nil {
			return domain.Response{}, err
		}
	}

	var (
		result   domain.Response
		stats    reconcileStats
		previous snowflake.ID
	)
	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		previous = order.SupplierID

		if req.Supplier != nil {
			supplier, err := s.suppliers.Resolve(ctx, tx, req.Supplier.Upsert())
			if err != nil {
				return err
			}
			order.SupplierID = supplier.ID
		}

		if req.LineItems != nil {
			current, err := s.lineItems.FindByOrderID(ctx, tx, order.ID)
			if err != nil {
				return err
			}
			_, st, err := s.reconcileLineItems(ctx, tx, order.ID, current, req.LineItems, now)
			if err != nil {
				return err
			}
			stats = st
		}

		order.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, order); err != nil {
			return err
		}

		result, err = s.assemble(ctx, tx, *order)
		return err
	})
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		return domain.Response{}, err
	}

	s.afterWrite(ctx, events.OrderUpdated, metrics.OperationUpdate, result, stats, previous, result.Supplier.ID)
	s.log.Info("order updated",
		zap.String("order_id", result.ID.String()),
		zap.Int("line_items_created", stats.created),
		zap.Int("line_items_updated", stats.updated),
		zap.Int("line_items_deleted", stats.deleted),
	)
	return result, nil
}

// Delete removes the order and its line items. The supplier is kept.
func (s *Service) Delete(ctx context.Context, value string) error {
	id, err := parseID(value)
	if err != nil {
		return err
	}

	var removed int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		current, err := s.lineItems.FindByOrderID(ctx, tx, id)
		if err != nil {
			return err
		}
		removed = len(current)
		if err := s.lineItems.DeleteByOrderID(ctx, tx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.metrics.RecordOrderWrite(ctx, metrics.OperationDelete)
	s.metrics.RecordLineItems(ctx, metrics.ActionDeleted, removed)
	s.events.Emit(ctx, events.New(ctx, events.OrderDeleted, id, s.clock.Now(), nil))
	s.log.Info("order deleted", zap.String("order_id", id.String()))
	return nil
}

func (s *Service) assemble(ctx context.Context, conn *gorm.DB, order domain.Order) (domain.Response, error) {
	suppliers, err := s.suppliers.FindByIDs(ctx, conn, []snowflake.ID{order.SupplierID})
	if err != nil {
		return domain.Response{}, err
	}
	supplier, ok := suppliers[order.SupplierID]
	if !ok {
		return domain.Response{}, errors.New("order supplier missing")
	}
	items, err := s.lineItems.FindByOrderID(ctx, conn, order.ID)
	if err != nil {
		return domain.Response{}, err
	}
	return domain.Assemble(order, supplier, items), nil
}

func (s *Service) afterWrite(ctx context.Context, typ events.Type, operation string, result domain.Response, stats reconcileStats, suppliers ...snowflake.ID) {
	s.suppliers.Evict(ctx, suppliers...)
	s.metrics.RecordOrderWrite(ctx, operation)
	s.metrics.RecordLineItems(ctx, metrics.ActionCreated, stats.created)
	s.metrics.RecordLineItems(ctx, metrics.ActionUpdated, stats.updated)
	s.metrics.RecordLineItems(ctx, metrics.ActionDeleted, stats.deleted)
	s.events.Emit(ctx, events.New(ctx, typ, result.ID, s.clock.Now(), result))
}

func (s *Service) validateLineItems(items []lineitemdomain.Input) error {
	if max := s.policy.Get().MaxLineItems; max > 0 && len(items) > max {
		return domain.ErrTooManyLineItems
	}
	seen := make(map[snowflake.ID]struct{}, len(items))
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return &domain.LineItemError{Index: i, Err: err}
		}
		id, ok, err := lineItemID(item)
		if err != nil {
			return &domain.LineItemError{Index: i, Err: err}
		}
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			return &domain.LineItemError{Index: i, Err: domain.ErrDuplicateLineItem}
		}
		seen[id] = struct{}{}
	}
	return domain.CheckTotals(items)
}

func lineItemID(in lineitemdomain.Input) (snowflake.ID, bool, error) {
	if in.ID == nil || strings.TrimSpace(*in.ID) == "" {
		return 0, false, nil
	}
	id, err := parseID(*in.ID)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
