package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	done := make(chan struct{})
	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not succeed")
	}
	d.Close()
	if d.ErrorCount() != 0 {
		t.Fatalf("errors = %d", d.ErrorCount())
	}
}

func TestDispatcherCountsPermanentFailure(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	_ = d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		calls.Add(1)
		return errors.New("chat not found")
	})
	d.Close()
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
	if d.ErrorCount() != 1 {
		t.Fatalf("errors = %d, want 1", d.ErrorCount())
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	if err := d.Enqueue(context.Background(), "a", "b", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v", err)
	}
}

type recordingPoster struct {
	mu   sync.Mutex
	sent []tele.Recipient
}

func (p *recordingPoster) Send(to tele.Recipient, _ interface{}, _ ...interface{}) (*tele.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, to)
	return &tele.Message{}, nil
}

func TestPostWithoutDispatcherSendsInline(t *testing.T) {
	var d *Dispatcher
	p := &recordingPoster{}
	if err := d.Post(context.Background(), p, &tele.Chat{ID: 5}, "hello"); err != nil {
		t.Fatalf("post: %v", err)
	}
	if len(p.sent) != 1 || p.sent[0].Recipient() != "5" {
		t.Fatalf("sent = %v", p.sent)
	}
}

func TestPostThroughQueue(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2})
	p := &recordingPoster{}
	for i := int64(1); i <= 3; i++ {
		if err := d.Post(context.Background(), p, &tele.Chat{ID: i}, "hi"); err != nil {
			t.Fatalf("post: %v", err)
		}
	}
	d.Close()
	if len(p.sent) != 3 {
		t.Fatalf("sent %d, want 3", len(p.sent))
	}
}

func TestEnqueueRacingClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				err := d.Enqueue(context.Background(), "a", "b", func() error { return nil })
				if err != nil && !errors.Is(err, ErrQueueClosed) && !errors.Is(err, ErrQueueFull) {
					t.Errorf("unexpected err: %v", err)
					return
				}
			}
		}()
	}
	d.Close()
	wg.Wait()
	d.Close()
}

func TestDispatcherStopsAtMaxDuration(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 10, RetryBackoff: time.Hour, MaxDuration: 20 * time.Millisecond})
	_ = d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		return &net.OpError{Op: "dial", Err: errors.New("refused")}
	})
	d.Close()
	if d.ErrorCount() != 1 {
		t.Fatalf("errors = %d, want 1", d.ErrorCount())
	}
}
