package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

const minimalYAML = `
telegram:
  token: test-token
  admin_ids: [11]
database:
  name: scripts
moderation:
  review_chat_id: -100
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	require.Equal(t, "test-token", cfg.Telegram.Token)
	require.True(t, cfg.Telegram.IsAdmin(11))
	require.Equal(t, int64(-100), cfg.Moderation.ReviewChatID)
	require.Equal(t, 72*time.Hour, cfg.ModerationTTL())
	require.Equal(t, 15*time.Minute, cfg.PendingTTL())
	require.Equal(t, 5, cfg.Marketplace.PageSize)
	require.EqualValues(t, 512<<10, cfg.Marketplace.MaxScriptBytes)
	require.Equal(t, "Europe/Moscow", cfg.Location().String())
	require.Equal(t, "localhost", cfg.Database.Host)
	require.Same(t, &cfg.Config, cfg.CoreConfig())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("MODERATION_REVIEW_CHAT_ID", "-200")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("APP_TIMEZONE", "UTC")

	cfg, err := LoadConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	require.Equal(t, int64(-200), cfg.Moderation.ReviewChatID)
	require.Equal(t, "db.internal", cfg.Database.Host)
	require.Equal(t, time.UTC.String(), cfg.Location().String())
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]string{
		"missing review chat": "telegram:\n  token: t\ndatabase:\n  name: s\n",
		"bad timezone":        minimalYAML + "app:\n  timezone: Mars/Olympus\n",
		"negative page size":  minimalYAML + "marketplace:\n  page_size: -1\n",
		"missing db name":     "telegram:\n  token: t\nmoderation:\n  review_chat_id: 1\n",
		"tiny queue":          "telegram:\n  token: t\ndatabase:\n  name: s\nmoderation:\n  review_chat_id: 1\n  capacity: 5\n",
		"tiny awaiter":        minimalYAML + "conversation:\n  capacity: 9\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestRunOptionsWireRoutes(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	a, err := New(cfg, sqlx.NewDb(raw, "postgres"))
	require.NoError(t, err)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	require.NotNil(t, opts.OnStart)
	require.NotEmpty(t, opts.Middlewares)

	endpoints := map[any]bool{}
	for _, r := range opts.Routes {
		endpoints[r.Endpoint] = true
	}
	for _, want := range []string{"/start", "/cancel", "/admin", "/getchatid", tele.OnCallback, tele.OnText, tele.OnDocument, tele.OnVoice} {
		require.True(t, endpoints[want], want)
	}

	require.NoError(t, a.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}
