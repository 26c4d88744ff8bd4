package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id             BIGSERIAL PRIMARY KEY,
		email          VARCHAR(255) NOT NULL UNIQUE,
		password       VARCHAR(255),
		email_verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE TABLE IF NOT EXISTS users_operations (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		type       VARCHAR(2) NOT NULL,
		token      VARCHAR(64) NOT NULL UNIQUE,
		ttl        TIMESTAMPTZ NOT NULL,
		data       JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS users_operations_user_id_type_idx ON users_operations (user_id, type);`,
}

// * EnsureSchema создает таблицы, если их еще нет
func (r *PostgresRepo) EnsureSchema(ctx context.Context) error {
	const op = "storage.postgres.EnsureSchema"

	for _, stmt := range schema {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}
