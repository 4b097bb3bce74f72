// Package moderation holds uploaded scripts until a reviewer approves or
// rejects them.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maypok86/otter"

	"github.com/m3rciful/scriptbot/core/logger"
)

const (
	// DefaultTTL bounds how long a submission waits for review.
	DefaultTTL = 72 * time.Hour
	// DefaultCapacity bounds the number of submissions held at once.
	DefaultCapacity = 1000
	// MinCapacity is the smallest queue accepted; smaller otter caches
	// reject every write.
	MinCapacity = 10
)

// ErrNotFound is returned when no submission is pending under a name.
// Callers treat it as a stale button, not a failure.
var ErrNotFound = errors.New("moderation: submission not pending")

// ErrRejected is returned when the cache refuses a submission.
var ErrRejected = errors.New("moderation: submission rejected")

// Decision is a reviewer's verdict.
type Decision string

const (
	Approve Decision = "approve"
	Reject  Decision = "reject"
)

// Artifact is a submitted script awaiting review.
type Artifact struct {
	ID      uuid.UUID
	Name    string
	Content []byte
	// FileID references the uploaded document so it can be re-posted.
	FileID     string
	Author     string
	AuthorChat int64
	Submitted  time.Time
}

// Options configures a Queue.
type Options struct {
	TTL      time.Duration
	Capacity int
}

// Queue maps submission names to artifacts. Names are the correlation key,
// so a second submission under the same name replaces the first.
type Queue struct {
	// mu makes lookup-and-delete in Resolve atomic.
	mu    sync.Mutex
	cache otter.Cache[string, Artifact]
}

// NewQueue builds a Queue; zero options fall back to defaults.
func NewQueue(opts Options) (*Queue, error) {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Capacity < MinCapacity {
		return nil, fmt.Errorf("moderation.NewQueue: capacity %d below minimum %d", opts.Capacity, MinCapacity)
	}
	cache, err := otter.MustBuilder[string, Artifact](opts.Capacity).
		DeletionListener(onEvicted).
		WithTTL(opts.TTL).
		Build()
	if err != nil {
		return nil, fmt.Errorf("moderation.NewQueue: %w", err)
	}
	return &Queue{cache: cache}, nil
}

func onEvicted(name string, a Artifact, cause otter.DeletionCause) {
	if cause != otter.Expired && cause != otter.Size {
		return
	}
	reason := "expired"
	if cause == otter.Size {
		reason = "capacity"
	}
	logger.LogEvent(context.Background(), logger.SVCModeration, slog.LevelInfo, "moderation.evicted",
		slog.String("status", "expired"),
		slog.String("script", name),
		slog.String("submission_id", a.ID.String()),
		slog.String("cause", reason),
	)
}

// Submit stores a under a.Name and reports whether an earlier submission
// with that name was overwritten. A zero ID is filled in. On ErrRejected
// nothing was stored.
func (q *Queue) Submit(a Artifact) (Artifact, bool, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Submitted.IsZero() {
		a.Submitted = time.Now()
	}
	q.mu.Lock()
	prev, replaced := q.cache.Get(a.Name)
	stored := q.cache.Set(a.Name, a)
	q.mu.Unlock()

	attrs := []slog.Attr{
		slog.String("submission_id", a.ID.String()),
		slog.String("script", a.Name),
		slog.String("author", a.Author),
		slog.Int("bytes", len(a.Content)),
	}
	if !stored {
		attrs = append(attrs, slog.String("status", "error"))
		logger.LogEvent(context.Background(), logger.SVCModeration, slog.LevelError, "moderation.rejected", attrs...)
		return a, false, fmt.Errorf("submit %s: %w", a.Name, ErrRejected)
	}
	if replaced {
		attrs = append(attrs, slog.Bool("replaced", true), slog.String("prev_id", prev.ID.String()))
		logger.LogEvent(context.Background(), logger.SVCModeration, slog.LevelWarn, "moderation.replaced", attrs...)
	} else {
		logger.LogEvent(context.Background(), logger.SVCModeration, slog.LevelInfo, "moderation.submitted", attrs...)
	}
	return a, replaced, nil
}

// Resolve removes the submission called name and returns it. Exactly one
// of several concurrent calls for the same name succeeds; the rest, and
// any call after expiry, get ErrNotFound.
func (q *Queue) Resolve(name string, d Decision) (Artifact, error) {
	q.mu.Lock()
	a, ok := q.cache.Get(name)
	if ok {
		q.cache.Delete(name)
	}
	q.mu.Unlock()

	if !ok {
		logger.LogEvent(context.Background(), logger.SVCModeration, slog.LevelInfo, "moderation.resolve",
			slog.String("status", "skip"),
			slog.String("outcome", "not_found"),
			slog.String("script", name),
			slog.String("decision", string(d)),
		)
		return Artifact{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	logger.LogEvent(context.Background(), logger.SVCModeration, slog.LevelInfo, "moderation.resolve",
		slog.String("status", "ok"),
		slog.String("submission_id", a.ID.String()),
		slog.String("script", name),
		slog.String("decision", string(d)),
		slog.Duration("wait", logger.Took(a.Submitted)),
	)
	return a, nil
}

// Pending reports whether a submission called name is waiting.
func (q *Queue) Pending(name string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.cache.Get(name)
	return ok
}

// Len returns the number of waiting submissions.
func (q *Queue) Len() int {
	return q.cache.Size()
}

// Close releases the cache's background resources.
func (q *Queue) Close() {
	q.cache.Close()
}
