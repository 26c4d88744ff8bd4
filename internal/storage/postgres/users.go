package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"identity_service/internal/models"
	"identity_service/internal/storage"

	"github.com/jackc/pgx/v5"
)

// пароль по умолчанию не выбирается
const userColumns = `id, email, password IS NOT NULL, email_verified, created_at, updated_at`

func (r *PostgresRepo) SaveUser(ctx context.Context, tx storage.Tx, email string, passHash []byte) (int64, error) {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (email, password)
		VALUES ($1, $2)
		RETURNING id;
	`

	var id int64

	err := r.conn(tx).QueryRow(ctx, query, email, nullableHash(passHash)).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, storage.ErrUserExists
		}

		return 0, fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) UserByEmail(ctx context.Context, tx storage.Tx, email string) (models.User, error) {
	const op = "storage.postgres.UserByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1;`

	u, err := scanUser(r.conn(tx).QueryRow(ctx, query, email))
	if err != nil {
		return models.User{}, wrapUserErr(op, err)
	}

	return u, nil
}

func (r *PostgresRepo) UserByID(ctx context.Context, tx storage.Tx, id int64) (models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`

	u, err := scanUser(r.conn(tx).QueryRow(ctx, query, id))
	if err != nil {
		return models.User{}, wrapUserErr(op, err)
	}

	return u, nil
}

// * UserWithPassword возвращает пользователя вместе с хешем пароля
func (r *PostgresRepo) UserWithPassword(ctx context.Context, tx storage.Tx, email string) (models.User, error) {
	const op = "storage.postgres.UserWithPassword"

	query := `SELECT ` + userColumns + `, password FROM users WHERE email = $1;`

	var (
		u    models.User
		hash *string
	)

	err := r.conn(tx).QueryRow(ctx, query, email).Scan(
		&u.ID,
		&u.Email,
		&u.HasPassword,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
		&hash,
	)
	if err != nil {
		return models.User{}, wrapUserErr(op, err)
	}

	if hash != nil {
		u.PassHash = []byte(*hash)
	}

	return u, nil
}

func (r *PostgresRepo) CountUsersByEmail(ctx context.Context, tx storage.Tx, email string) (int, error) {
	const op = "storage.postgres.CountUsersByEmail"

	var n int

	err := r.conn(tx).QueryRow(ctx, `SELECT count(*) FROM users WHERE email = $1;`, email).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (r *PostgresRepo) UpdateUser(ctx context.Context, tx storage.Tx, id int64, upd models.UserUpdate) error {
	const op = "storage.postgres.UpdateUser"

	if upd.IsEmpty() {
		return nil
	}

	var (
		sets []string
		args []any
	)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.PassHash != nil {
		add("password", string(upd.PassHash))
	}
	if upd.EmailVerified != nil {
		add("email_verified", *upd.EmailVerified)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE users SET %s, updated_at = now() WHERE id = $%d`,
		strings.Join(sets, ", "),
		len(args),
	)

	tag, err := r.conn(tx).Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserExists
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.HasPassword,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func wrapUserErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrUserNotFound
	}

	return fmt.Errorf("%s: %w", op, err)
}

func nullableHash(hash []byte) any {
	if len(hash) == 0 {
		return nil
	}

	return string(hash)
}
