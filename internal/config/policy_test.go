package config

import "testing"

func TestPolicyPageSizeClamps(t *testing.T) {
	p := Policy{MaxLineItems: 10, DefaultPageSize: 20, MaxPageSize: 100}

	if got := p.PageSize(0); got != 20 {
		t.Fatalf("expected default page size 20, got %d", got)
	}
	if got := p.PageSize(-5); got != 20 {
		t.Fatalf("expected default page size for negative input, got %d", got)
	}
	if got := p.PageSize(500); got != 100 {
		t.Fatalf("expected page size clamped to 100, got %d", got)
	}
	if got := p.PageSize(42); got != 42 {
		t.Fatalf("expected requested page size 42, got %d", got)
	}
}

func TestValidatePolicyRejectsInvertedPageSizes(t *testing.T) {
	err := validatePolicy(Policy{MaxLineItems: 1, DefaultPageSize: 300, MaxPageSize: 100})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if err := validatePolicy(DefaultPolicy()); err != nil {
		t.Fatalf("expected default policy to be valid, got %v", err)
	}
}

func TestNilPolicyHolderFallsBackToDefaults(t *testing.T) {
	var holder *PolicyHolder
	if got := holder.Get(); got != DefaultPolicy() {
		t.Fatalf("expected default policy, got %+v", got)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a:9092, ,b:9092 ")
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
}
