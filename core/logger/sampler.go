package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratio passes num out of every den events; the zero value passes everything.
type ratio struct {
	num, den uint64
}

// parseRatio accepts "n/d" or "d" (meaning 1/d). Anything else disables sampling.
func parseRatio(raw string) ratio {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ratio{}
	}
	numPart, denPart, found := strings.Cut(raw, "/")
	if !found {
		numPart, denPart = "1", raw
	}
	num, err1 := strconv.ParseUint(strings.TrimSpace(numPart), 10, 32)
	den, err2 := strconv.ParseUint(strings.TrimSpace(denPart), 10, 32)
	if err1 != nil || err2 != nil || num == 0 || den == 0 {
		return ratio{}
	}
	return ratio{num: min(num, den), den: den}
}

// ratioSampler is a lock-free counter that keeps the first num events of every window of den.
type ratioSampler struct {
	r     atomic.Pointer[ratio]
	count atomic.Uint64
}

func newRatioSampler(r ratio) *ratioSampler {
	s := &ratioSampler{}
	s.Set(r)
	return s
}

// Set replaces the ratio and restarts the window.
func (s *ratioSampler) Set(r ratio) {
	s.r.Store(&r)
	s.count.Store(0)
}

// Allow reports whether the next event passes.
func (s *ratioSampler) Allow() bool {
	r := s.r.Load()
	if r == nil || r.den == 0 {
		return true
	}
	return (s.count.Add(1)-1)%r.den < r.num
}
