package telegram

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/scriptbot/core/config"
)

type scriptedTransport struct {
	errs  []error
	calls int
}

func (s *scriptedTransport) RoundTrip(*http.Request) (*http.Response, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}"))}, nil
}

func TestRetryTransportRetriesDialErrors(t *testing.T) {
	dial := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	base := &scriptedTransport{errs: []error{dial, dial}}
	rt := &retryTransport{base: base, maxRetries: 3}

	req, _ := http.NewRequest(http.MethodGet, "https://api.telegram.org/botX/getMe", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	resp.Body.Close()
	if base.calls != 3 {
		t.Fatalf("calls = %d, want 3", base.calls)
	}
}

func TestRetryTransportStopsOnPermanentError(t *testing.T) {
	base := &scriptedTransport{errs: []error{errors.New("bad certificate")}}
	rt := &retryTransport{base: base, maxRetries: 3}

	req, _ := http.NewRequest(http.MethodGet, "https://api.telegram.org/botX/getMe", nil)
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("expected error")
	}
	if base.calls != 1 {
		t.Fatalf("calls = %d, want 1", base.calls)
	}
}

func TestBuildHTTPClientOutlastsLongPoll(t *testing.T) {
	c := BuildHTTPClient(60 * time.Second)
	if c.Timeout <= 60*time.Second {
		t.Fatalf("client timeout %v must exceed poll timeout", c.Timeout)
	}
}

func TestBuildPoller(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Telegram.RunMode = coreconfig.RunModeWebhook
	cfg.Webhook = coreconfig.WebhookConfig{URL: "https://example.org/hook", Listen: "0.0.0.0", Port: 8443}
	wh, ok := BuildPoller(PollerOptionsFrom(cfg)).(*tele.Webhook)
	if !ok {
		t.Fatal("expected webhook poller")
	}
	if wh.Listen != "0.0.0.0:8443" {
		t.Fatalf("listen = %s", wh.Listen)
	}

	cfg.Telegram.RunMode = coreconfig.RunModeLongpoll
	lp, ok := BuildPoller(PollerOptionsFrom(cfg)).(*tele.LongPoller)
	if !ok {
		t.Fatal("expected long poller")
	}
	if lp.Timeout != defaultLongPollTimeout {
		t.Fatalf("timeout = %v", lp.Timeout)
	}
}
