package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sl "identity_service/internal/lib/logger"
	"identity_service/internal/models"
	"identity_service/internal/storage"
)

type TokenKind int

const (
	AccessToken TokenKind = iota
	RefreshToken
)

func (k TokenKind) String() string {
	if k == RefreshToken {
		return "refresh"
	}
	return "access"
}

// * Authenticate проверяет bearer токен и возвращает живую сессию.
// Нет токена -> ErrUnauthorized. Плохая подпись или сессии нет -> ErrInvalidSession,
// во втором случае запись под этим id удаляется.
func (a *Auth) Authenticate(ctx context.Context, kind TokenKind, bearer string) (*models.Session, error) {
	const op = "auth.Authenticate"

	log := a.log.With(slog.String("op", op), slog.String("kind", kind.String()))

	if bearer == "" {
		return nil, ErrUnauthorized
	}

	parse := a.tokens.ParseAccess
	if kind == RefreshToken {
		parse = a.tokens.ParseRefresh
	}

	sessionID, err := parse(bearer)
	if err != nil {
		log.Debug("invalid token", sl.Err(err))
		return nil, ErrInvalidSession
	}

	s, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s == nil {
		a.dropStale(ctx, sessionID, log)
		return nil, ErrInvalidSession
	}

	if kind == AccessToken {
		if _, err := a.users.ByID(ctx, nil, s.UserID); err != nil {
			if !errors.Is(err, storage.ErrUserNotFound) {
				return nil, fmt.Errorf("%s: %w", op, err)
			}

			a.dropStale(ctx, sessionID, log)
			return nil, ErrInvalidSession
		}
	}

	return s, nil
}

func (a *Auth) dropStale(ctx context.Context, sessionID string, log *slog.Logger) {
	if err := a.sessions.DeleteSession(ctx, sessionID); err != nil {
		log.Warn("failed to drop stale session", sl.Err(err))
	}
}
