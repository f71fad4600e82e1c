package logger

import (
	"strconv"
	"strings"
	"sync"
)

// ratioSampler passes the first numerator events of every denominator-sized
// window. High-volume debug lines (update receipts, send traces) go through
// it so a busy bot does not flood the sinks. A zeroed sampler passes all.
type ratioSampler struct {
	mu          sync.Mutex
	numerator   int
	denominator int
	seen        int
}

func newRatioSampler(numerator, denominator int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(numerator, denominator)
	return s
}

// Set reconfigures the ratio and restarts the window. Non-positive values
// disable sampling.
func (s *ratioSampler) Set(numerator, denominator int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if numerator <= 0 || denominator <= 0 {
		s.numerator, s.denominator, s.seen = 0, 0, 0
		return
	}
	if numerator > denominator {
		numerator = denominator
	}
	s.numerator = numerator
	s.denominator = denominator
	s.seen = 0
}

// Allow reports whether the current event falls inside the sampled share of
// the window.
func (s *ratioSampler) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.denominator <= 0 || s.numerator <= 0 {
		return true
	}
	s.seen++
	if s.seen > s.denominator {
		s.seen = 1
	}
	return s.seen <= s.numerator
}

// parseRatioSpec understands "N/M" and the shorthand "M" (meaning 1/M).
// Unparsable or non-positive specs disable sampling.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, 0
	}
	if rawNum, rawDen, ok := strings.Cut(spec, "/"); ok {
		num, errNum := strconv.Atoi(strings.TrimSpace(rawNum))
		den, errDen := strconv.Atoi(strings.TrimSpace(rawDen))
		if errNum != nil || errDen != nil {
			return 0, 0
		}
		return num, den
	}
	v, err := strconv.Atoi(spec)
	if err != nil || v <= 0 {
		return 0, 0
	}
	return 1, v
}
