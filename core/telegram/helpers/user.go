package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"
)

// UserFinder resolves a Telegram account to a domain user of type T.
type UserFinder[T any] interface {
	FindByTelegramID(ctx context.Context, tgID int64) (T, error)
}

// CurrentUser resolves the update's sender through finder. The generic type
// lets each bot supply its own user model.
func CurrentUser[T any](c tele.Context, finder UserFinder[T]) (T, error) {
	var zero T
	id := UserID(c)
	if finder == nil || id == 0 {
		return zero, nil
	}
	return finder.FindByTelegramID(BuildContext(c), id)
}
