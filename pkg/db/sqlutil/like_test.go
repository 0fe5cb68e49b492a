package sqlutil

import "testing"

func TestContainsPattern(t *testing.T) {
	cases := map[string]string{
		"Acme":      "%acme%",
		" 50% off ": "%50!% off%",
		"a_b":       "%a!_b%",
		"wow!":      "%wow!!%",
	}
	for in, want := range cases {
		if got := ContainsPattern(in); got != want {
			t.Fatalf("ContainsPattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPrefixPattern(t *testing.T) {
	cases := map[string]string{
		"e2e-":    "e2e-%",
		" Run_1 ": "Run!_1%",
		"100%":    "100!%%",
		"a!b":     "a!!b%",
	}
	for in, want := range cases {
		if got := PrefixPattern(in); got != want {
			t.Fatalf("PrefixPattern(%q) = %q, want %q", in, got, want)
		}
	}
}
