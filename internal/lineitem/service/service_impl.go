package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/eshop/internal/clock"
	"github.com/smallbiznis/eshop/internal/config"
	"github.com/smallbiznis/eshop/internal/lineitem/domain"
	"github.com/smallbiznis/eshop/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/eshop/internal/order/domain"
	"github.com/smallbiznis/eshop/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Orders  orderdomain.Repository
	Policy  *config.PolicyHolder
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	orders  orderdomain.Repository
	policy  *config.PolicyHolder
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("lineitem.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		orders:  p.Orders,
		policy:  p.Policy,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateLineItemRequest) (domain.Response, error) {
	if err := req.Input.Validate(); err != nil {
		return domain.Response{}, err
	}
	orderID, err := parseID(req.OrderID, domain.ErrInvalidOrder)
	if err != nil {
		return domain.Response{}, err
	}

	now := s.clock.Now()
	item := domain.LineItem{
		ID:        s.genID.Generate(),
		OrderID:   orderID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	item.Apply(req.Input)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureOrder(ctx, tx, orderID); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, &item)
	})
	if err != nil {
		return domain.Response{}, err
	}

	s.metrics.RecordLineItems(ctx, metrics.ActionCreated, 1)
	return domain.NewResponse(item), nil
}

func (s *Service) GetByID(ctx context.Context, value string) (domain.Response, error) {
	id, err := parseID(value, domain.ErrInvalidID)
	if err != nil {
		return domain.Response{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Response{}, err
	}
	if item == nil {
		return domain.Response{}, domain.ErrNotFound
	}
	return domain.NewResponse(*item), nil
}

func (s *Service) List(ctx context.Context, req domain.ListLineItemRequest) (domain.ListLineItemResponse, error) {
	cursor, err := pagination.DecodePosition(req.PageToken)
	if err != nil {
		return domain.ListLineItemResponse{}, domain.ErrInvalidPageToken
	}

	filter := domain.ListFilter{
		ItemName: strings.TrimSpace(req.ItemName),
		Cursor:   cursor,
		Limit:    s.policy.Get().PageSize(req.PageSize),
	}
	if strings.TrimSpace(req.OrderID) != "" {
		orderID, err := parseID(req.OrderID, domain.ErrInvalidOrder)
		if err != nil {
			return domain.ListLineItemResponse{}, err
		}
		filter.OrderID = &orderID
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListLineItemResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(filter.Limit), func(item *domain.LineItem) string {
		return pagination.EncodePosition(int64(item.ID), item.CreatedAt)
	})
	if len(items) > filter.Limit {
		items = items[:filter.Limit]
	}

	out := make([]domain.Response, 0, len(items))
	for _, item := range items {
		out = append(out, domain.NewResponse(*item))
	}
	return domain.ListLineItemResponse{PageInfo: *pageInfo, LineItems: out}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateLineItemRequest) (domain.Response, error) {
	id, err := parseID(req.ID, domain.ErrInvalidID)
	if err != nil {
		return domain.Response{}, err
	}

	var updated domain.LineItem
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}

		in := mergeInput(*item, req)
		if err := in.Validate(); err != nil {
			return err
		}

		if req.OrderID != nil {
			orderID, err := parseID(*req.OrderID, domain.ErrInvalidOrder)
			if err != nil {
				return err
			}
			if orderID != item.OrderID {
				if err := s.ensureOrder(ctx, tx, orderID); err != nil {
					return err
				}
				item.OrderID = orderID
			}
		}

		item.Apply(in)
		item.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, item); err != nil {
			return err
		}
		updated = *item
		return nil
	})
	if err != nil {
		return domain.Response{}, err
	}

	s.metrics.RecordLineItems(ctx, metrics.ActionUpdated, 1)
	return domain.NewResponse(updated), nil
}

func (s *Service) Delete(ctx context.Context, value string) error {
	id, err := parseID(value, domain.ErrInvalidID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		return s.repo.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	s.metrics.RecordLineItems(ctx, metrics.ActionDeleted, 1)
	s.log.Info("line item deleted", zap.String("line_item_id", id.String()))
	return nil
}

func (s *Service) ensureOrder(ctx context.Context, tx *gorm.DB, orderID snowflake.ID) error {
	order, err := s.orders.FindByID(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrInvalidOrder
	}
	return nil
}

func mergeInput(item domain.LineItem, req domain.UpdateLineItemRequest) domain.Input {
	in := domain.Input{
		ItemName:        item.ItemName,
		Quantity:        item.Quantity,
		PriceWithoutTax: item.PriceWithoutTax,
		TaxName:         item.TaxName,
		TaxAmount:       item.TaxAmount,
	}
	if req.ItemName != nil {
		in.ItemName = *req.ItemName
	}
	if req.Quantity != nil {
		in.Quantity = *req.Quantity
	}
	if req.PriceWithoutTax != nil {
		in.PriceWithoutTax = *req.PriceWithoutTax
	}
	if req.TaxName != nil {
		in.TaxName = *req.TaxName
	}
	if req.TaxAmount != nil {
		in.TaxAmount = *req.TaxAmount
	}
	return in
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, invalid
	}
	return id, nil
}
