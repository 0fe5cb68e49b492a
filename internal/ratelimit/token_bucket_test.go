package ratelimit

import (
	"testing"
	"time"
)

func TestEvaluateRetryAfter(t *testing.T) {
	res := evaluate(false, 0.5, 2, 10)
	if res.Allowed {
		t.Fatal("expected denial")
	}
	if res.RetryAfter != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", res.RetryAfter)
	}
	if res.Limit != 10 {
		t.Fatalf("expected limit 10, got %d", res.Limit)
	}

	res = evaluate(true, 3.7, 2, 10)
	if !res.Allowed || res.Remaining != 3 || res.RetryAfter != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestBucketTTL(t *testing.T) {
	if got := bucketTTL(100, 10); got != time.Second {
		t.Fatalf("expected 1s floor, got %s", got)
	}
	if got := bucketTTL(1, 5); got != 10*time.Second {
		t.Fatalf("expected 10s, got %s", got)
	}
}

func TestScriptValueParsing(t *testing.T) {
	if toInt("1") != 1 || toInt(int64(0)) != 0 {
		t.Fatal("toInt")
	}
	if toFloat("2.5") != 2.5 || toFloat(int64(3)) != 3 {
		t.Fatal("toFloat")
	}
}
