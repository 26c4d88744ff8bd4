package postgres

import (
	"errors"
	"fmt"
	"testing"

	"identity_service/internal/config"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{Postgres: config.Postgres{
		Host:     "db",
		Port:     6543,
		User:     "identity",
		Password: "secret",
		DBName:   "identity",
		SSLMode:  "disable",
	}}

	poolConfig, err := pgxpool.ParseConfig(dsn(cfg))
	require.NoError(t, err)

	assert.Equal(t, "db", poolConfig.ConnConfig.Host)
	assert.Equal(t, uint16(6543), poolConfig.ConnConfig.Port)
	assert.Equal(t, "identity", poolConfig.ConnConfig.User)
	assert.Equal(t, "secret", poolConfig.ConnConfig.Password)
	assert.Equal(t, "identity", poolConfig.ConnConfig.Database)
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unique", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "wrapped unique", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), want: true},
		{name: "foreign key", err: &pgconn.PgError{Code: "23503"}},
		{name: "plain", err: errors.New("boom")},
		{name: "nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

func TestSchemaCoversTables(t *testing.T) {
	require.Len(t, schema, 3)
	assert.Contains(t, schema[0], "email          VARCHAR(255) NOT NULL UNIQUE")
	assert.Contains(t, schema[1], "ON DELETE CASCADE")
	assert.Contains(t, schema[1], "token      VARCHAR(64) NOT NULL UNIQUE")
	assert.Contains(t, schema[2], "(user_id, type)")
}
