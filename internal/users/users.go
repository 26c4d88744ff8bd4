package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"identity_service/internal/models"
	"identity_service/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

type Store interface {
	SaveUser(ctx context.Context, tx storage.Tx, email string, passHash []byte) (int64, error)
	UserByEmail(ctx context.Context, tx storage.Tx, email string) (models.User, error)
	UserByID(ctx context.Context, tx storage.Tx, id int64) (models.User, error)
	UserWithPassword(ctx context.Context, tx storage.Tx, email string) (models.User, error)
	CountUsersByEmail(ctx context.Context, tx storage.Tx, email string) (int, error)
	UpdateUser(ctx context.Context, tx storage.Tx, id int64, upd models.UserUpdate) error
}

// * Users обертка над хранилищем: email приводится к нижнему регистру, пароль хешируется при записи
type Users struct {
	log   *slog.Logger
	store Store
	cost  int
}

func New(log *slog.Logger, store Store, cost int) *Users {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	return &Users{
		log:   log,
		store: store,
		cost:  cost,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *Users) Create(ctx context.Context, tx storage.Tx, email, password string) (models.User, error) {
	const op = "users.Create"

	hash, err := u.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	email = NormalizeEmail(email)

	id, err := u.store.SaveUser(ctx, tx, email, hash)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return models.User{}, storage.ErrUserExists
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.User{
		ID:          id,
		Email:       email,
		HasPassword: true,
	}, nil
}

func (u *Users) ByEmail(ctx context.Context, tx storage.Tx, email string) (models.User, error) {
	return u.store.UserByEmail(ctx, tx, NormalizeEmail(email))
}

func (u *Users) ByID(ctx context.Context, tx storage.Tx, id int64) (models.User, error) {
	return u.store.UserByID(ctx, tx, id)
}

func (u *Users) WithPassword(ctx context.Context, email string) (models.User, error) {
	return u.store.UserWithPassword(ctx, nil, NormalizeEmail(email))
}

func (u *Users) Exists(ctx context.Context, tx storage.Tx, email string) (bool, error) {
	const op = "users.Exists"

	n, err := u.store.CountUsersByEmail(ctx, tx, NormalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

func (u *Users) MarkVerified(ctx context.Context, tx storage.Tx, id int64) error {
	verified := true

	return u.store.UpdateUser(ctx, tx, id, models.UserUpdate{EmailVerified: &verified})
}

func (u *Users) SetPassword(ctx context.Context, tx storage.Tx, id int64, password string) error {
	const op = "users.SetPassword"

	hash, err := u.Hash(password)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return u.SetPasswordHash(ctx, tx, id, hash)
}

// * SetPasswordHash записывает уже посчитанный хеш
func (u *Users) SetPasswordHash(ctx context.Context, tx storage.Tx, id int64, hash []byte) error {
	return u.store.UpdateUser(ctx, tx, id, models.UserUpdate{PassHash: hash})
}

func (u *Users) SetEmail(ctx context.Context, tx storage.Tx, id int64, email string) error {
	email = NormalizeEmail(email)

	return u.store.UpdateUser(ctx, tx, id, models.UserUpdate{Email: &email})
}

func (u *Users) Hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), u.cost)
}

func ComparePassword(hash []byte, password string) bool {
	if len(hash) == 0 {
		return false
	}

	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
