package state

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type chatCtx struct {
	tele.Context
	chat *tele.Chat
	text string
}

func (c chatCtx) Chat() *tele.Chat { return c.chat }
func (c chatCtx) Text() string     { return c.text }

func newAwaiter(t *testing.T) *Awaiter {
	t.Helper()
	a, err := NewAwaiter(Options{Capacity: 64})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestDispatchConsumesExactlyOnce(t *testing.T) {
	a := newAwaiter(t)
	for _, kind := range InputKinds {
		calls := 0
		a.Await(7, kind, func(tele.Context) error { calls++; return nil })
		require.Equal(t, Awaiting(kind), a.State(7))

		consumed, err := a.Dispatch(7, kind, nil)
		require.NoError(t, err)
		require.True(t, consumed, kind)

		consumed, err = a.Dispatch(7, kind, nil)
		require.NoError(t, err)
		require.False(t, consumed, kind)
		require.Equal(t, 1, calls, kind)
		require.Equal(t, StateIdle, a.State(7))
	}
}

func TestDispatchIgnoresOtherKinds(t *testing.T) {
	a := newAwaiter(t)
	fired := false
	a.AwaitDocument(1, func(tele.Context) error { fired = true; return nil })

	for _, kind := range InputKinds {
		if kind == KindDocument {
			continue
		}
		consumed, err := a.Dispatch(1, kind, nil)
		require.NoError(t, err)
		require.False(t, consumed)
	}
	consumed, _ := a.Dispatch(2, KindDocument, nil)
	require.False(t, consumed, "other conversations must not match")
	require.False(t, fired)
	require.Equal(t, Awaiting(KindDocument), a.State(1))

	consumed, _ = a.Dispatch(1, KindDocument, nil)
	require.True(t, consumed)
	require.True(t, fired)
}

func TestAwaitOverwritesPrevious(t *testing.T) {
	a := newAwaiter(t)
	var got string
	replaced, err := a.AwaitText(3, func(tele.Context) error { got = "first"; return nil })
	require.NoError(t, err)
	require.False(t, replaced)
	replaced, err = a.AwaitVoice(3, func(tele.Context) error { got = "second"; return nil })
	require.NoError(t, err)
	require.True(t, replaced)
	require.Equal(t, 1, a.Len())

	consumed, _ := a.Dispatch(3, KindText, nil)
	require.False(t, consumed, "replaced registration must not fire")
	consumed, _ = a.Dispatch(3, KindVoice, nil)
	require.True(t, consumed)
	require.Equal(t, "second", got)
}

func TestDispatchReturnsContinuationError(t *testing.T) {
	a := newAwaiter(t)
	boom := errors.New("boom")
	a.AwaitText(4, func(tele.Context) error { return boom })

	consumed, err := a.Dispatch(4, KindText, nil)
	require.True(t, consumed)
	require.ErrorIs(t, err, boom)
	require.Equal(t, StateIdle, a.State(4), "a failed continuation is still consumed")
}

func TestContinuationCanChain(t *testing.T) {
	a := newAwaiter(t)
	var steps []string
	a.AwaitText(5, func(tele.Context) error {
		steps = append(steps, "name")
		a.AwaitDocument(5, func(tele.Context) error {
			steps = append(steps, "file")
			return nil
		})
		return nil
	})

	consumed, _ := a.Dispatch(5, KindText, nil)
	require.True(t, consumed)
	require.Equal(t, Awaiting(KindDocument), a.State(5))
	consumed, _ = a.Dispatch(5, KindDocument, nil)
	require.True(t, consumed)
	require.Equal(t, []string{"name", "file"}, steps)
}

func TestCancel(t *testing.T) {
	a := newAwaiter(t)
	require.False(t, a.Cancel(6))
	a.AwaitPhoto(6, func(tele.Context) error { return nil })
	require.True(t, a.Cancel(6))
	consumed, _ := a.Dispatch(6, KindPhoto, nil)
	require.False(t, consumed)
}

func TestConcurrentDispatchSingleConsumer(t *testing.T) {
	a := newAwaiter(t)
	var calls atomic.Int32
	a.AwaitSticker(8, func(tele.Context) error { calls.Add(1); return nil })

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = a.Dispatch(8, KindSticker, nil)
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), calls.Load())
}

func TestInterceptFallsThrough(t *testing.T) {
	a := newAwaiter(t)
	ctx := chatCtx{chat: &tele.Chat{ID: 9}, text: "hello"}
	var hits []string
	fallback := func(tele.Context) error { hits = append(hits, "default"); return nil }
	observed := 0
	h := a.Intercept(KindText, fallback, func(tele.Context, error) { observed++ })

	a.AwaitText(9, func(tele.Context) error { hits = append(hits, "pending"); return nil })
	require.NoError(t, h(ctx))
	require.NoError(t, h(ctx))
	require.Equal(t, []string{"pending", "default"}, hits)
	require.Equal(t, 1, observed)
}

func TestInterceptSkipsCommands(t *testing.T) {
	a := newAwaiter(t)
	var hits []string
	h := a.Intercept(KindText, func(tele.Context) error { hits = append(hits, "default"); return nil }, nil)

	a.AwaitText(10, func(tele.Context) error { hits = append(hits, "pending"); return nil })
	require.NoError(t, h(chatCtx{chat: &tele.Chat{ID: 10}, text: "/help"}))
	require.Equal(t, Awaiting(KindText), a.State(10))
	require.NoError(t, h(chatCtx{chat: &tele.Chat{ID: 10}, text: "answer"}))
	require.Equal(t, []string{"default", "pending"}, hits)
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		msg  *tele.Message
		want InputKind
		ok   bool
	}{
		{&tele.Message{Text: "hello"}, KindText, true},
		{&tele.Message{Text: "/start"}, "", false},
		{&tele.Message{Document: &tele.Document{}}, KindDocument, true},
		{&tele.Message{Photo: &tele.Photo{}}, KindPhoto, true},
		{&tele.Message{Voice: &tele.Voice{}}, KindVoice, true},
		{nil, "", false},
	}
	for _, tc := range cases {
		got, ok := KindOf(tc.msg)
		require.Equal(t, tc.ok, ok)
		require.Equal(t, tc.want, got)
	}
}

func TestStateAwaits(t *testing.T) {
	kind, ok := Awaiting(KindAudio).Awaits()
	require.True(t, ok)
	require.Equal(t, KindAudio, kind)
	_, ok = StateIdle.Awaits()
	require.False(t, ok)
	for _, k := range InputKinds {
		require.NotEmpty(t, k.Endpoint())
	}
}

func TestPendingExpires(t *testing.T) {
	a, err := NewAwaiter(Options{TTL: time.Second, Capacity: MinCapacity})
	require.NoError(t, err)
	t.Cleanup(a.Close)

	a.AwaitText(3, func(tele.Context) error { return nil })
	require.Equal(t, Awaiting(KindText), a.State(3))
	require.Eventually(t, func() bool {
		return a.State(3) == StateIdle
	}, 5*time.Second, 50*time.Millisecond)

	consumed, err := a.Dispatch(3, KindText, nil)
	require.NoError(t, err)
	require.False(t, consumed)
}

func TestNewAwaiterRejectsTinyCapacity(t *testing.T) {
	_, err := NewAwaiter(Options{Capacity: MinCapacity - 1})
	require.Error(t, err)

	a, err := NewAwaiter(Options{Capacity: MinCapacity})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	_, err = a.AwaitText(1, func(tele.Context) error { return nil })
	require.NoError(t, err)
	require.Equal(t, Awaiting(KindText), a.State(1))
}

func TestCapacityEvictsOldestPending(t *testing.T) {
	a, err := NewAwaiter(Options{Capacity: MinCapacity})
	require.NoError(t, err)
	t.Cleanup(a.Close)

	for conv := int64(1); conv <= 200; conv++ {
		_, err := a.AwaitText(conv, func(tele.Context) error { return nil })
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool {
		return a.Len() <= MinCapacity
	}, 5*time.Second, 50*time.Millisecond)
}
