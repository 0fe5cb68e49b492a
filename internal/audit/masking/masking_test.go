package masking

import "testing"

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"jane@acme.test": "j***@acme.test",
		"  x@y.z ":       "x***@y.z",
		"no-at-sign":     "***",
		"":               "",
	}
	for in, want := range cases {
		if got := MaskEmail(in); got != want {
			t.Fatalf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskFieldsWalksNestedValues(t *testing.T) {
	out := MaskFields(map[string]any{
		"supplier": map[string]any{"email": "ops@vendor.test", "name": "Vendor"},
		"Email":    "root@vendor.test",
		"count":    3,
	}, "email")

	nested := out["supplier"].(map[string]any)
	if nested["email"] != "o***@vendor.test" {
		t.Fatalf("nested email not masked: %v", nested["email"])
	}
	if nested["name"] != "Vendor" {
		t.Fatalf("name should be untouched: %v", nested["name"])
	}
	if out["Email"] != "r***@vendor.test" {
		t.Fatalf("top-level email not masked: %v", out["Email"])
	}
	if out["count"] != 3 {
		t.Fatalf("count should be untouched: %v", out["count"])
	}
}
