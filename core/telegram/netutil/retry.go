package netutil

import (
	"errors"
	"syscall"
	"time"

	tele "gopkg.in/telebot.v4"
)

// ShouldRetry reports whether an outbound Telegram call may succeed if repeated:
// transport timeouts, dial and DNS failures, dropped connections, Bot API 5xx and flood waits.
// Other 4xx answers are final.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	if RetryAfter(err) > 0 {
		return true
	}
	switch Classify(err) {
	case "timeout", "dial", "dns", "http_5xx":
		return true
	}
	return false
}

// RetryAfter returns the wait Telegram asked for in a flood error, or 0.
func RetryAfter(err error) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return 0
}
