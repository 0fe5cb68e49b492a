package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/eshop/internal/audit"
	auditdomain "github.com/smallbiznis/eshop/internal/audit/domain"
	"github.com/smallbiznis/eshop/internal/cache"
	"github.com/smallbiznis/eshop/internal/config"
	"github.com/smallbiznis/eshop/internal/events"
	"github.com/smallbiznis/eshop/internal/lineitem"
	lineitemdomain "github.com/smallbiznis/eshop/internal/lineitem/domain"
	"github.com/smallbiznis/eshop/internal/observability"
	obsmiddleware "github.com/smallbiznis/eshop/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/eshop/internal/observability/metrics"
	obstracing "github.com/smallbiznis/eshop/internal/observability/tracing"
	"github.com/smallbiznis/eshop/internal/order"
	orderdomain "github.com/smallbiznis/eshop/internal/order/domain"
	"github.com/smallbiznis/eshop/internal/providers"
	"github.com/smallbiznis/eshop/internal/providers/pdf"
	"github.com/smallbiznis/eshop/internal/ratelimit"
	"github.com/smallbiznis/eshop/internal/supplier"
	supplierdomain "github.com/smallbiznis/eshop/internal/supplier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	cache.Module,
	events.Module,
	supplier.Module,
	order.Module,
	lineitem.Module,
	providers.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	log         *zap.Logger
	supplierSvc supplierdomain.Service
	orderSvc    orderdomain.Service
	lineItemSvc lineitemdomain.Service
	auditSvc    auditdomain.Service
	pdf         pdf.Provider
	limiter     ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	SupplierSvc supplierdomain.Service
	OrderSvc    orderdomain.Service
	LineItemSvc lineitemdomain.Service
	AuditSvc    auditdomain.Service `optional:"true"`
	PDF         pdf.Provider        `optional:"true"`
	Limiter     ratelimit.Limiter   `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		log:         p.Log.Named("http.server"),
		supplierSvc: p.SupplierSvc,
		orderSvc:    p.OrderSvc,
		lineItemSvc: p.LineItemSvc,
		auditSvc:    p.AuditSvc,
		pdf:         p.PDF,
		limiter:     p.Limiter,
	}

	svc.registerPurchaseRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerPurchaseRoutes() {
	purchase := s.engine.Group("/purchase")
	purchase.Use(s.limitWrites())

	// -------- Suppliers --------
	purchase.GET("/suppliers", s.ListSuppliers)
	purchase.POST("/suppliers", s.CreateSupplier)
	purchase.GET("/suppliers/:id", s.GetSupplierByID)
	purchase.PUT("/suppliers/:id", s.ReplaceSupplier)
	purchase.PATCH("/suppliers/:id", s.PatchSupplier)
	purchase.DELETE("/suppliers/:id", s.DeleteSupplier)

	// -------- Orders --------
	purchase.GET("/orders", s.ListOrders)
	purchase.POST("/orders", s.CreateOrder)
	purchase.GET("/orders/:id", s.GetOrderByID)
	purchase.GET("/orders/:id/document", s.GetOrderDocument)
	purchase.PUT("/orders/:id", s.ReplaceOrder)
	purchase.PATCH("/orders/:id", s.PatchOrder)
	purchase.DELETE("/orders/:id", s.DeleteOrder)

	// -------- Line Items --------
	purchase.GET("/line_items", s.ListLineItems)
	purchase.POST("/line_items", s.CreateLineItem)
	purchase.GET("/line_items/:id", s.GetLineItemByID)
	purchase.PUT("/line_items/:id", s.ReplaceLineItem)
	purchase.PATCH("/line_items/:id", s.PatchLineItem)
	purchase.DELETE("/line_items/:id", s.DeleteLineItem)

	purchase.GET("/audit_logs", s.ListAuditLogs)

	if !s.cfg.IsProduction() {
		purchase.POST("/test/cleanup", s.TestCleanup)
	}
}

// recordAudit writes an audit entry for a committed change. Failures are
// logged by the audit service and never change the response.
func (s *Server) recordAudit(c *gin.Context, action, targetType, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.AuditLog(c.Request.Context(), "", nil, action, targetType, &targetID, metadata)
}
