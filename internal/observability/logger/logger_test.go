package logger

import (
	"context"
	"testing"

	obscontext "github.com/smallbiznis/eshop/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAddsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-42")
	WithContext(ctx, base).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "req-42" {
		t.Fatalf("expected request_id field, got %v", got)
	}
}

func TestWithContextLeavesBaseWithoutFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithContext(context.Background(), base).Info("plain")

	if fields := logs.All()[0].ContextMap(); len(fields) != 0 {
		t.Fatalf("expected no correlation fields, got %v", fields)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(nil, Config{Level: "loud"}); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

func TestOperationFromSQL(t *testing.T) {
	cases := map[string]string{
		"SELECT * FROM orders":                          "SELECT",
		"  insert into suppliers (id) values (1)":       "INSERT",
		"WITH x AS (SELECT 1) UPDATE orders SET id = 1": "SELECT",
		"":                                              "UNKNOWN",
	}
	for sql, want := range cases {
		if got := operationFromSQL(sql); got != want {
			t.Fatalf("operationFromSQL(%q) = %q, want %q", sql, got, want)
		}
	}
}
