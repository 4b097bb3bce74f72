package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/scriptbot/core/logger"
	"github.com/m3rciful/scriptbot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
type Dispatcher struct {
	opts Options
	jobs chan job
	wg   sync.WaitGroup
	errs atomic.Uint64

	// mu orders Enqueue against Close so nothing is sent on a closed channel.
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts a dispatcher with sane defaults if options are zeroed.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}

	d := &Dispatcher{
		opts: opts,
		jobs: make(chan job, opts.QueueSize),
	}
	d.wg.Add(opts.Workers)
	for range opts.Workers {
		go d.worker()
	}
	return d
}

// Enqueue schedules the provided function for asynchronous execution.
// The run closure must be idempotent if retries are desired.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Poster is the part of *tele.Bot used to message chats other than the current one.
type Poster interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Post sends what to an arbitrary chat through the queue. A nil Dispatcher
// sends inline, which keeps handlers usable without a running worker pool.
func (d *Dispatcher) Post(ctx context.Context, p Poster, to tele.Recipient, what interface{}, opts ...interface{}) error {
	if p == nil || to == nil {
		return errors.New("telegram sender: nil poster or recipient")
	}
	endpoint := "sendMessage"
	if _, ok := what.(tele.Sendable); ok {
		endpoint = "sendMedia"
	}
	run := func() error {
		_, err := p.Send(to, what, opts...)
		return err
	}
	if d == nil {
		return run()
	}
	if err := d.Enqueue(ctx, "post", endpoint, run); err != nil {
		if errors.Is(err, ErrQueueFull) {
			return run()
		}
		return err
	}
	return nil
}

// Pending returns the number of queued jobs not yet picked up by a worker.
func (d *Dispatcher) Pending() int {
	return len(d.jobs)
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close rejects new jobs and waits for workers to finish the queued ones.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.handleJob(j)
	}
}

func (d *Dispatcher) handleJob(j job) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	logger.Debug(ctx, "tg.sender", "send.start", jobAttrs(j)...)

	attempt, err := d.deliver(ctx, j)
	elapsed := slog.Duration("elapsed", logger.Took(start))
	if err != nil {
		d.errs.Add(1)
		logger.Error(ctx, "tg.sender", "send.fail", append(jobAttrs(j),
			slog.String("err", netutil.Redact(err)),
			slog.String("err_code", netutil.Classify(err)),
			slog.Int("attempts", attempt),
			elapsed,
		)...)
		return
	}
	if attempt > 1 {
		logger.Info(ctx, "tg.sender", "send.retry.success", append(jobAttrs(j), slog.Int("attempt", attempt), elapsed)...)
		return
	}
	logger.Debug(ctx, "tg.sender", "send.success", append(jobAttrs(j), elapsed)...)
}

// deliver runs j until it succeeds, fails permanently, runs out of attempts or
// exceeds MaxDuration. It returns the number of attempts made.
func (d *Dispatcher) deliver(ctx context.Context, j job) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.MaxDuration)
	defer cancel()

	attempts := d.opts.MaxRetries + 1
	for attempt := 1; ; attempt++ {
		err := j.run()
		if err == nil {
			return attempt, nil
		}
		if attempt == attempts || !netutil.ShouldRetry(err) {
			return attempt, err
		}
		delay := d.opts.RetryBackoff * time.Duration(attempt)
		if wait := netutil.RetryAfter(err); wait > delay {
			delay = wait
		}
		logger.Debug(ctx, "tg.sender", "send.retry.backoff",
			append(jobAttrs(j), slog.Int("attempt", attempt), slog.Duration("retry_in", delay))...)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, fmt.Errorf("%w (last: %w)", ctx.Err(), err)
		case <-timer.C:
		}
	}
}

func jobAttrs(j job) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return attrs
}
