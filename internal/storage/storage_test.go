package storage

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/scriptbot/internal/marketplace"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = raw.Close()
	})
	return sqlx.NewDb(raw, "postgres"), mock
}

var userCols = []string{"id", "nickname", "telegram_id", "last_login", "scripts", "created_at"}

func TestFindByTelegramID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE telegram_id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(id.String(), "neo", int64(42), now, "{a.lua,b.lua}", now))

	u, err := repo.FindByTelegramID(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, "neo", u.Nickname)
	require.Equal(t, int64(42), u.TelegramID.Int64)
	require.True(t, u.Selection().Contains("b.lua"))
	require.Equal(t, 2, u.Selection().Len())
}

func TestFindByTelegramIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM users`).WillReturnError(sql.ErrNoRows)

	_, err := NewUserRepository(db).FindByTelegramID(context.Background(), 7)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLinkByTokenSuccess(t *testing.T) {
	db, mock := newMock(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id FROM link_tokens WHERE token = \$1 AND used_at IS NULL AND expires_at > NOW\(\) FOR UPDATE`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(id.String()))
	mock.ExpectExec(`UPDATE users SET telegram_id = \$1, last_login = NOW\(\) WHERE id = \$2`).
		WithArgs(int64(42), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE link_tokens SET used_at = NOW\(\)`).
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := NewUserRepository(db).LinkByToken(context.Background(), "tok", 42)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLinkByTokenUnknownRollsBack(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT user_id FROM link_tokens`).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	ok, err := NewUserRepository(db).LinkByToken(context.Background(), "bad", 42)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSelectionRoundTrip(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT scripts FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"scripts"}).AddRow("{x.lua}"))
	mock.ExpectExec(`UPDATE users SET scripts = \$1 WHERE id = \$2`).
		WithArgs(`{"x.lua","y.lua"}`, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	now, sel, err := marketplace.Toggle(context.Background(), repo, id, "y.lua")
	require.NoError(t, err)
	require.True(t, now)
	require.Equal(t, []string{"x.lua", "y.lua"}, sel.Names())
}

func TestUnlinkAndStats(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	id := uuid.New()
	since := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE users SET telegram_id = NULL WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE last_login >= \$1 ORDER BY last_login DESC`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(id.String(), "neo", nil, since.Add(time.Hour), "{}", since))

	require.NoError(t, repo.UnlinkTelegram(context.Background(), id))
	users, err := repo.FindLoggedInSince(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.False(t, users[0].TelegramID.Valid)
	require.Equal(t, 0, users[0].Selection().Len())
}

func TestUpdateMissingUser(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`UPDATE users SET nickname`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewUserRepository(db).Update(context.Background(), User{ID: uuid.New()})
	require.ErrorIs(t, err, ErrNotFound)
}

var scriptCols = []string{"id", "name", "author", "content", "created_at"}

func TestScriptsFindAllKeepsOrder(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT id, name, author, content, created_at FROM scripts ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(scriptCols).
			AddRow(int64(1), "a.lua", "neo", []byte("1"), now).
			AddRow(int64(2), "b.lua", "trinity", []byte("2"), now))

	items, err := NewScriptRepository(db).FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "a.lua", items[0].Name)
	require.Equal(t, int64(2), *items[1].ID)
	require.True(t, items[1].Saved())
}

func TestScriptsSaveReturnsID(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO scripts \(name, author, content\) VALUES \(\$1, \$2, \$3\) ON CONFLICT \(name\) DO UPDATE`).
		WithArgs("x.lua", "neo", []byte("print(1)")).
		WillReturnRows(sqlmock.NewRows(scriptCols).AddRow(int64(9), "x.lua", "neo", []byte("print(1)"), now))

	item, err := NewScriptRepository(db).Save(context.Background(), marketplace.CatalogItem{
		Name: "x.lua", Author: "neo", Content: []byte("print(1)"),
	})
	require.NoError(t, err)
	require.Equal(t, int64(9), *item.ID)
}

func TestScriptsFindByNameAndDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScriptRepository(db)

	mock.ExpectQuery(`FROM scripts WHERE name = \$1`).
		WithArgs("gone.lua").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`DELETE FROM scripts WHERE name = \$1`).
		WithArgs("gone.lua").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.FindByName(context.Background(), "gone.lua")
	require.ErrorIs(t, err, ErrNotFound)
	err = repo.Delete(context.Background(), marketplace.CatalogItem{Name: "gone.lua"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMigrationsEmbedded(t *testing.T) {
	ups, err := fs.Glob(Migrations, MigrationsDir+"/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(Migrations, MigrationsDir+"/*.down.sql")
	require.NoError(t, err)
	require.Len(t, ups, 2)
	require.Len(t, downs, len(ups))
}
