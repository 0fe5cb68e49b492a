package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/eshop/internal/cache"
	"github.com/smallbiznis/eshop/internal/clock"
	"github.com/smallbiznis/eshop/internal/config"
	"github.com/smallbiznis/eshop/internal/events"
	"github.com/smallbiznis/eshop/internal/observability/metrics"
	"github.com/smallbiznis/eshop/internal/supplier/domain"
	"github.com/smallbiznis/eshop/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxNameLength  = 255
	cacheKeyPrefix = "supplier:"
)

var validate = validator.New()

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Config  config.Config
	Policy  *config.PolicyHolder
	Cache   cache.Store      `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
	Events  *events.Emitter  `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	policy   *config.PolicyHolder
	cache    cache.Store
	cacheTTL time.Duration
	metrics  *metrics.Metrics
	events   *events.Emitter

	// evictions advances on every Evict. A read only fills the cache when no
	// eviction happened while it was loading the row.
	evictions atomic.Uint64
}

func New(p Params) *Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("supplier.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		policy:   p.Policy,
		cache:    p.Cache,
		cacheTTL: time.Duration(p.Config.Cache.SupplierTTLSecs) * time.Second,
		metrics:  p.Metrics,
		events:   p.Events,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateSupplierRequest) (domain.Supplier, error) {
	name, email, err := normalize(req.Name, req.Email)
	if err != nil {
		return domain.Supplier{}, err
	}

	supplier := s.newSupplier(name, email)
	if err := s.repo.Insert(ctx, s.db, &supplier); err != nil {
		return domain.Supplier{}, err
	}
	return supplier, nil
}

func (s *Service) GetByID(ctx context.Context, value string) (domain.Supplier, error) {
	id, err := parseID(value)
	if err != nil {
		return domain.Supplier{}, err
	}

	if cached, ok := s.cached(ctx, id); ok {
		return cached, nil
	}

	generation := s.evictions.Load()
	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Supplier{}, err
	}
	if item == nil {
		return domain.Supplier{}, domain.ErrNotFound
	}

	s.remember(ctx, *item, generation)
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListSupplierRequest) (domain.ListSupplierResponse, error) {
	cursor, err := pagination.DecodePosition(req.PageToken)
	if err != nil {
		return domain.ListSupplierResponse{}, domain.ErrInvalidPageToken
	}

	pageSize := s.policy.Get().PageSize(req.PageSize)
	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Name:   strings.TrimSpace(req.Name),
		Cursor: cursor,
		Limit:  pageSize,
	})
	if err != nil {
		return domain.ListSupplierResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *domain.Supplier) string {
		return pagination.EncodePosition(int64(item.ID), item.CreatedAt)
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	suppliers := make([]domain.Supplier, 0, len(items))
	for _, item := range items {
		suppliers = append(suppliers, *item)
	}
	return domain.ListSupplierResponse{PageInfo: *pageInfo, Suppliers: suppliers}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateSupplierRequest) (domain.Supplier, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return domain.Supplier{}, err
	}

	var updated domain.Supplier
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}

		name, email := item.Name, item.Email
		if req.Name != nil {
			name = *req.Name
		}
		if req.Email != nil {
			email = *req.Email
		}
		if name, email, err = normalize(name, email); err != nil {
			return err
		}

		item.Name = name
		item.Email = email
		item.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, item); err != nil {
			return err
		}
		updated = *item
		return nil
	})
	if err != nil {
		return domain.Supplier{}, err
	}

	s.Evict(ctx, id)
	return updated, nil
}

// Delete removes the supplier and cascades to every order it owns.
func (s *Service) Delete(ctx context.Context, value string) error {
	id, err := parseID(value)
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

	s.Evict(ctx, id)
	s.events.Emit(ctx, events.New(ctx, events.SupplierDeleted, id, s.clock.Now(), nil))
	s.log.Info("supplier deleted", zap.String("supplier_id", id.String()))
	return nil
}

// Resolve applies the supplier payload of an order write: create when no id is
// given, update in place when the id exists, reject unknown ids.
func (s *Service) Resolve(ctx context.Context, tx *gorm.DB, in domain.UpsertInput) (*domain.Supplier, error) {
	name, email, err := normalize(in.Name, in.Email)
	if err != nil {
		return nil, err
	}

	if in.ID == nil || strings.TrimSpace(*in.ID) == "" {
		supplier := s.newSupplier(name, email)
		if err := s.repo.Insert(ctx, tx, &supplier); err != nil {
			return nil, err
		}
		return &supplier, nil
	}

	id, err := parseID(*in.ID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrUnknownSupplier
	}

	item.Name = name
	item.Email = email
	item.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, tx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]domain.Supplier, error) {
	items, err := s.repo.FindByIDs(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]domain.Supplier, len(items))
	for _, item := range items {
		out[item.ID] = *item
	}
	return out, nil
}

// Evict drops cached copies after a committed write.
func (s *Service) Evict(ctx context.Context, ids ...snowflake.ID) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	s.evictions.Add(1)
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, cacheKey(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.metrics.RecordSupplierCache(ctx, metrics.CacheError)
		s.log.Warn("supplier cache eviction failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *Service) cached(ctx context.Context, id snowflake.ID) (domain.Supplier, bool) {
	if s.cache == nil {
		return domain.Supplier{}, false
	}
	var supplier domain.Supplier
	found, err := s.cache.Get(ctx, cacheKey(id), &supplier)
	switch {
	case err != nil:
		s.metrics.RecordSupplierCache(ctx, metrics.CacheError)
		s.log.Warn("supplier cache read failed", zap.String("supplier_id", id.String()), zap.Error(err))
		return domain.Supplier{}, false
	case !found:
		s.metrics.RecordSupplierCache(ctx, metrics.CacheMiss)
		return domain.Supplier{}, false
	default:
		s.metrics.RecordSupplierCache(ctx, metrics.CacheHit)
		return supplier, true
	}
}

func (s *Service) remember(ctx context.Context, supplier domain.Supplier, generation uint64) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if s.evictions.Load() != generation {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(supplier.ID), supplier, s.cacheTTL); err != nil {
		s.log.Warn("supplier cache write failed", zap.String("supplier_id", supplier.ID.String()), zap.Error(err))
	}
}

func (s *Service) newSupplier(name, email string) domain.Supplier {
	now := s.clock.Now()
	return domain.Supplier{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func normalize(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return "", "", domain.ErrInvalidName
	}
	email = strings.TrimSpace(email)
	if err := validate.Var(email, "required,email,max=254"); err != nil {
		return "", "", domain.ErrInvalidEmail
	}
	return name, email, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func cacheKey(id snowflake.ID) string {
	return cacheKeyPrefix + id.String()
}

// IsValidationError reports whether err was caused by the caller's input.
func IsValidationError(err error) bool {
	return errors.Is(err, domain.ErrInvalidName) ||
		errors.Is(err, domain.ErrInvalidEmail) ||
		errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, domain.ErrInvalidPageToken) ||
		errors.Is(err, domain.ErrUnknownSupplier)
}
