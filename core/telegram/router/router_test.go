package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/scriptbot/core/telegram"
	"github.com/m3rciful/scriptbot/core/telegram/callbacks"
	"github.com/m3rciful/scriptbot/core/telegram/commands"
	"github.com/m3rciful/scriptbot/core/telegram/middleware"
	"github.com/m3rciful/scriptbot/core/telegram/state"
	"github.com/m3rciful/scriptbot/core/telegram/teletest"
)

func routeFor(routes []tg.Route, endpoint string) tele.HandlerFunc {
	for _, r := range routes {
		if r.Endpoint == endpoint {
			return r.Handler
		}
	}
	return nil
}

func TestInputRoutesPreferAwaiter(t *testing.T) {
	aw, err := state.NewAwaiter(state.Options{})
	require.NoError(t, err)
	defer aw.Close()

	reg := tg.NewRegistry()
	var got []string
	reg.SetTextFallback(func(c tele.Context) error { got = append(got, "fallback:"+c.Text()); return nil })
	routes := InputRoutes(aw, reg)
	require.Len(t, routes, len(state.InputKinds))
	text := routeFor(routes, tele.OnText)
	require.NotNil(t, text)

	aw.AwaitText(1, func(c tele.Context) error { got = append(got, "awaited:"+c.Text()); return nil })
	require.NoError(t, text(teletest.NewMessage(1, 1, "token-123")))
	require.NoError(t, text(teletest.NewMessage(1, 1, "hello")))
	require.Equal(t, []string{"awaited:token-123", "fallback:hello"}, got)
}

func TestInputRoutesKeepOtherKindsPending(t *testing.T) {
	aw, err := state.NewAwaiter(state.Options{})
	require.NoError(t, err)
	defer aw.Close()

	reg := tg.NewRegistry()
	media := 0
	reg.SetMediaFallback(func(tele.Context) error { media++; return nil })
	routes := InputRoutes(aw, reg)

	aw.AwaitDocument(2, func(tele.Context) error { return errors.New("bad file") })
	require.NoError(t, routeFor(routes, tele.OnPhoto)(teletest.NewMessage(2, 2, "")))
	require.Equal(t, 1, media)
	require.Equal(t, state.Awaiting(state.KindDocument), aw.State(2))

	err = routeFor(routes, tele.OnDocument)(teletest.NewDocument(2, 2, &tele.Document{FileName: "a.lua"}))
	require.EqualError(t, err, "bad file")
	require.Equal(t, state.StateIdle, aw.State(2))
}

func TestCallbackRouteDispatchesParsedAction(t *testing.T) {
	reg := tg.NewRegistry()
	var seen callbacks.Action
	require.NoError(t, reg.RegisterAction(callbacks.KindToggle, func(c tele.Context) error {
		a, ok := callbacks.From(c)
		require.True(t, ok)
		seen = a
		return nil
	}))
	h := CallbackRoute(reg).Handler

	require.NoError(t, h(teletest.NewCallback(1, 1, "", "\ftoggle|speed:hack.lua")))
	require.Equal(t, callbacks.New(callbacks.KindToggle, "speed:hack.lua"), seen)
}

func TestCallbackRouteAnswersOnce(t *testing.T) {
	reg := tg.NewRegistry()
	require.NoError(t, reg.RegisterAction(callbacks.KindApprove, func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "done", ShowAlert: true})
	}))
	require.NoError(t, reg.RegisterAction(callbacks.KindReject, func(tele.Context) error { return nil }))
	h := middleware.MessageMetricsMiddleware(CallbackRoute(reg).Handler)

	answered := teletest.NewCallback(1, 1, "", "\fapprove|x.lua")
	require.NoError(t, h(answered))
	require.Len(t, answered.Responses(), 1)
	require.Equal(t, "done", answered.Responses()[0].Text)

	silent := teletest.NewCallback(1, 1, "", "\freject|x.lua")
	require.NoError(t, h(silent))
	require.Len(t, silent.Responses(), 1)
}

func TestCallbackRouteUnknownKindUsesFallback(t *testing.T) {
	reg := tg.NewRegistry()
	stale := 0
	reg.SetCallbackNotFound(func(tele.Context) error { stale++; return nil })
	h := CallbackRoute(reg).Handler

	require.NoError(t, h(teletest.NewCallback(1, 1, "", "\fbogus|1")))
	require.NoError(t, h(teletest.NewCallback(1, 1, "", "\fpage|1")), "registered kind without handler")
	require.Equal(t, 2, stale)
}

func TestCommandRoutesGuardAdminCommands(t *testing.T) {
	reg := tg.NewRegistry()
	ran := 0
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     func(tele.Context) error { ran++; return nil },
		Description: "admin",
		AdminOnly:   true,
	})
	denied := 0
	routes := CommandRoutes(reg, CommandRouteOptions{
		IsAdmin:       func(id int64) bool { return id == 100 },
		OnAdminReject: func(tele.Context) error { denied++; return nil },
	})
	h := routeFor(routes, "/admin")
	require.NotNil(t, h)

	require.NoError(t, h(teletest.NewMessage(100, 100, "/admin")))
	require.NoError(t, h(teletest.NewMessage(5, 5, "/admin")))
	require.Equal(t, 1, ran)
	require.Equal(t, 1, denied)
}

func TestDeriveErrorCode(t *testing.T) {
	require.Equal(t, "", deriveErrorCode(nil))
	require.Equal(t, "ERRORSTRING", deriveErrorCode(errors.New("x")))
}

func TestInputRoutesUnknownCommandKeepsPrompt(t *testing.T) {
	aw, err := state.NewAwaiter(state.Options{})
	require.NoError(t, err)
	defer aw.Close()

	reg := tg.NewRegistry()
	fallback := 0
	reg.SetTextFallback(func(tele.Context) error { fallback++; return nil })
	text := routeFor(InputRoutes(aw, reg), tele.OnText)

	aw.AwaitText(3, func(tele.Context) error { t.Fatal("command consumed the prompt"); return nil })
	require.NoError(t, text(teletest.NewMessage(3, 3, "/unknown")))
	require.Equal(t, 1, fallback)
	require.Equal(t, state.Awaiting(state.KindText), aw.State(3))
}
