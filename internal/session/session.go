package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	sl "identity_service/internal/lib/logger"
	"identity_service/internal/models"

	"github.com/google/uuid"
)

const prefix = "session"

var ErrMalformedID = errors.New("malformed session id")

// * Store хранилище ключей с временем жизни (redis)
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, keys ...string) error
	DelPattern(ctx context.Context, pattern string) error
	Ping(ctx context.Context) error
}

type Cache struct {
	log   *slog.Logger
	store Store
	now   func() time.Time
}

func New(log *slog.Logger, store Store) *Cache {
	return &Cache{
		log:   log,
		store: store,
		now:   time.Now,
	}
}

// * Create создает сессию session:<userId>:<uuid> и возвращает ее id
func (c *Cache) Create(ctx context.Context, payload models.SessionPayload, ttl time.Duration) (string, error) {
	const op = "session.Create"

	id := NewID(payload.UserID)
	now := c.now()

	s := models.Session{
		ID:        id,
		UserID:    payload.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.put(ctx, s, ttl); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// * Get возвращает nil, nil если сессии нет
func (c *Cache) Get(ctx context.Context, id string) (*models.Session, error) {
	const op = "session.Get"

	raw, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if raw == nil {
		return nil, nil
	}

	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%s: failed to unmarshal session: %w", op, err)
	}

	return &s, nil
}

// * Update перезаписывает сессию целиком и обновляет ttl, id не меняется
func (c *Cache) Update(ctx context.Context, id string, payload models.SessionPayload, ttl time.Duration) error {
	const op = "session.Update"

	now := c.now()
	createdAt := now

	existing, err := c.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil {
		createdAt = existing.CreatedAt
	}

	s := models.Session{
		ID:        id,
		UserID:    payload.UserID,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}

	if err := c.put(ctx, s, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *Cache) DeleteSession(ctx context.Context, id string) error {
	const op = "session.DeleteSession"

	if err := c.store.Del(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * DeleteAllSessionsForUser удаляет все сессии пользователя по шаблону session:<userId>:*
func (c *Cache) DeleteAllSessionsForUser(ctx context.Context, userID int64) error {
	const op = "session.DeleteAllSessionsForUser"

	if err := c.store.DelPattern(ctx, UserPattern(userID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.log.Debug("all sessions dropped", slog.String("op", op), slog.Int64("user_id", userID))

	return nil
}

func (c *Cache) IsReady(ctx context.Context) bool {
	if err := c.store.Ping(ctx); err != nil {
		c.log.Warn("session store is not ready", sl.Err(err))
		return false
	}

	return true
}

func (c *Cache) put(ctx context.Context, s models.Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return c.store.Set(ctx, s.ID, raw, ttl)
}

func NewID(userID int64) string {
	return fmt.Sprintf("%s:%d:%s", prefix, userID, uuid.NewString())
}

func UserPattern(userID int64) string {
	return fmt.Sprintf("%s:%d:*", prefix, userID)
}

// * UserIDFromID достает userId из id сессии
func UserIDFromID(id string) (int64, error) {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) != 3 || parts[0] != prefix || parts[2] == "" {
		return 0, ErrMalformedID
	}

	userID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, ErrMalformedID
	}

	return userID, nil
}
