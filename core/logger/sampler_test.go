package logger

import "testing"

func TestRatioSamplerWindow(t *testing.T) {
	s := newRatioSampler(1, 3)

	var passed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			passed++
		}
	}
	if passed != 3 {
		t.Errorf("passed = %d, want 3 of 9", passed)
	}
}

func TestRatioSamplerDisabledPassesAll(t *testing.T) {
	s := newRatioSampler(0, 0)
	for i := 0; i < 5; i++ {
		if !s.Allow() {
			t.Fatal("disabled sampler must pass everything")
		}
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := []struct {
		spec     string
		num, den int
	}{
		{"1/50", 1, 50},
		{" 2 / 10 ", 2, 10},
		{"25", 1, 25},
		{"", 0, 0},
		{"0", 0, 0},
		{"abc", 0, 0},
		{"1/x", 0, 0},
	}
	for _, tc := range cases {
		num, den := parseRatioSpec(tc.spec)
		if num != tc.num || den != tc.den {
			t.Errorf("parseRatioSpec(%q) = %d/%d, want %d/%d", tc.spec, num, den, tc.num, tc.den)
		}
	}
}
