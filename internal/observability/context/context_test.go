package obscontext

import (
	"context"
	"testing"
)

func TestRequestAndClientValues(t *testing.T) {
	ctx := WithRequestID(context.Background(), "  req-1 ")
	ctx = WithClient(ctx, "10.0.0.1", "curl/8.0")

	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("expected trimmed request id, got %q", got)
	}
	ip, ua := ClientFromContext(ctx)
	if ip != "10.0.0.1" || ua != "curl/8.0" {
		t.Fatalf("unexpected client values %q %q", ip, ua)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}
