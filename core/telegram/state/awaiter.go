package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maypok86/otter"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptbot/core/logger"
)

const (
	// DefaultTTL bounds how long an unanswered prompt stays registered.
	DefaultTTL = 15 * time.Minute
	// DefaultCapacity bounds the number of conversations with pending input.
	DefaultCapacity = 10000
	// MinCapacity is the smallest cache the awaiter accepts; smaller otter
	// caches reject every write.
	MinCapacity = 10
)

// ErrRejected is returned when the cache refuses a registration.
var ErrRejected = errors.New("state: registration rejected")

// Options configures an Awaiter.
type Options struct {
	TTL      time.Duration
	Capacity int
}

type pending struct {
	kind  InputKind
	fn    Continuation
	since time.Time
}

// Awaiter holds at most one pending continuation per conversation.
type Awaiter struct {
	// mu makes lookup-and-delete atomic; the cache alone only guards single operations.
	mu    sync.Mutex
	cache otter.Cache[int64, pending]
}

// NewAwaiter builds an Awaiter; zero options fall back to defaults.
func NewAwaiter(opts Options) (*Awaiter, error) {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Capacity < MinCapacity {
		return nil, fmt.Errorf("state.NewAwaiter: capacity %d below minimum %d", opts.Capacity, MinCapacity)
	}
	cache, err := otter.MustBuilder[int64, pending](opts.Capacity).
		DeletionListener(onEvicted).
		WithTTL(opts.TTL).
		Build()
	if err != nil {
		return nil, fmt.Errorf("state.NewAwaiter: %w", err)
	}
	return &Awaiter{cache: cache}, nil
}

func onEvicted(conv int64, p pending, cause otter.DeletionCause) {
	if cause != otter.Expired && cause != otter.Size {
		return
	}
	reason := "expired"
	if cause == otter.Size {
		reason = "capacity"
	}
	logger.Info(context.Background(), "service.conversation", "awaiter.evicted",
		slog.String("status", "expired"),
		slog.Int64("conversation", conv),
		slog.String("input_kind", string(p.kind)),
		slog.String("cause", reason),
		slog.Duration("age", logger.Took(p.since)),
	)
}

// Await registers fn for the next input of kind from conv. An existing
// registration is overwritten and replaced is true. ErrRejected means
// nothing was registered.
func (a *Awaiter) Await(conv int64, kind InputKind, fn Continuation) (replaced bool, err error) {
	if fn == nil {
		return false, nil
	}
	a.mu.Lock()
	prev, replaced := a.cache.Get(conv)
	stored := a.cache.Set(conv, pending{kind: kind, fn: fn, since: time.Now()})
	a.mu.Unlock()

	if !stored {
		logger.Error(context.Background(), "service.conversation", "awaiter.rejected",
			slog.String("status", "error"),
			slog.Int64("conversation", conv),
			slog.String("input_kind", string(kind)),
		)
		return false, fmt.Errorf("await %s for %d: %w", kind, conv, ErrRejected)
	}

	if replaced {
		logger.Warn(context.Background(), "service.conversation", "awaiter.replaced",
			slog.Int64("conversation", conv),
			slog.String("input_kind", string(kind)),
			slog.String("state", string(Awaiting(prev.kind))),
			slog.Bool("replaced", true),
		)
	} else {
		logger.Debug(context.Background(), "service.conversation", "awaiter.registered",
			slog.Int64("conversation", conv),
			slog.String("input_kind", string(kind)),
		)
	}
	return replaced, nil
}

// AwaitText registers fn for the next text message from conv.
func (a *Awaiter) AwaitText(conv int64, fn Continuation) (bool, error) {
	return a.Await(conv, KindText, fn)
}

// AwaitDocument registers fn for the next document from conv.
func (a *Awaiter) AwaitDocument(conv int64, fn Continuation) (bool, error) {
	return a.Await(conv, KindDocument, fn)
}

// AwaitPhoto registers fn for the next photo from conv.
func (a *Awaiter) AwaitPhoto(conv int64, fn Continuation) (bool, error) {
	return a.Await(conv, KindPhoto, fn)
}

// AwaitVideo registers fn for the next video from conv.
func (a *Awaiter) AwaitVideo(conv int64, fn Continuation) (bool, error) {
	return a.Await(conv, KindVideo, fn)
}

// AwaitAudio registers fn for the next audio file from conv.
func (a *Awaiter) AwaitAudio(conv int64, fn Continuation) (bool, error) {
	return a.Await(conv, KindAudio, fn)
}

// AwaitSticker registers fn for the next sticker from conv.
func (a *Awaiter) AwaitSticker(conv int64, fn Continuation) (bool, error) {
	return a.Await(conv, KindSticker, fn)
}

// AwaitVoice registers fn for the next voice note from conv.
func (a *Awaiter) AwaitVoice(conv int64, fn Continuation) (bool, error) {
	return a.Await(conv, KindVoice, fn)
}

// take removes and returns the continuation for conv if it waits for kind.
// A registration for another kind stays in place.
func (a *Awaiter) take(conv int64, kind InputKind) (Continuation, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.cache.Get(conv)
	if !ok || p.kind != kind {
		return nil, false
	}
	a.cache.Delete(conv)
	return p.fn, true
}

// Dispatch runs the continuation registered for (conv, kind), if any, with c.
// consumed reports whether default handling must be skipped; err is the
// continuation's own result.
func (a *Awaiter) Dispatch(conv int64, kind InputKind, c tele.Context) (consumed bool, err error) {
	fn, ok := a.take(conv, kind)
	if !ok {
		return false, nil
	}
	logger.Debug(context.Background(), "service.conversation", "awaiter.dispatched",
		slog.Int64("conversation", conv),
		slog.String("input_kind", string(kind)),
	)
	return true, fn(c)
}

// Cancel drops any pending continuation for conv and reports whether one existed.
func (a *Awaiter) Cancel(conv int64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.cache.Get(conv); !ok {
		return false
	}
	a.cache.Delete(conv)
	return true
}

// State returns the current state of conv.
func (a *Awaiter) State(conv int64) State {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.cache.Get(conv); ok {
		return Awaiting(p.kind)
	}
	return StateIdle
}

// Len returns the number of conversations with pending input.
func (a *Awaiter) Len() int {
	return a.cache.Size()
}

// Close releases the cache's background resources.
func (a *Awaiter) Close() {
	a.cache.Close()
}
