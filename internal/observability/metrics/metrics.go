package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics exposes purchasing instruments.
type Metrics struct {
	ordersWritten       metric.Int64Counter
	lineItemsReconciled metric.Int64Counter
	supplierCache       metric.Int64Counter
	eventsPublished     metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)

	return provider, nil
}

// New configures the domain instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "eshop"
	}
	meter := provider.Meter(name)

	ordersWritten, err := meter.Int64Counter("eshop_orders_written_total",
		metric.WithDescription("Committed order writes by operation."))
	if err != nil {
		return nil, err
	}
	lineItemsReconciled, err := meter.Int64Counter("eshop_line_items_reconciled_total",
		metric.WithDescription("Line items touched by order writes by action."))
	if err != nil {
		return nil, err
	}
	supplierCache, err := meter.Int64Counter("eshop_supplier_cache_total",
		metric.WithDescription("Supplier cache lookups by outcome."))
	if err != nil {
		return nil, err
	}
	eventsPublished, err := meter.Int64Counter("eshop_events_published_total",
		metric.WithDescription("Domain events handed to the broker by type and outcome."))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ordersWritten:       ordersWritten,
		lineItemsReconciled: lineItemsReconciled,
		supplierCache:       supplierCache,
		eventsPublished:     eventsPublished,
	}, nil
}

// Noop returns instruments backed by the noop provider, for tests and tools.
func Noop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

func (m *Metrics) RecordOrderWrite(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.ordersWritten.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("operation", operation),
	)...))
}

// RecordLineItems adds count under action; zero counts are skipped.
func (m *Metrics) RecordLineItems(ctx context.Context, action string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.lineItemsReconciled.Add(ctx, int64(count), metric.WithAttributes(FilterAttributes(
		attribute.String("action", action),
	)...))
}

func (m *Metrics) RecordSupplierCache(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.supplierCache.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("outcome", outcome),
	)...))
}

func (m *Metrics) RecordEventPublished(ctx context.Context, eventType string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.eventsPublished.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("event_type", eventType),
		attribute.String("outcome", outcome),
	)...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"operation":   {},
	"action":      {},
	"outcome":     {},
	"event_type":  {},
	"route":       {},
	"method":      {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
