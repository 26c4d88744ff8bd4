package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"identity_service/internal/models"
	"identity_service/internal/storage"

	"github.com/jackc/pgx/v5"
)

const operationColumns = `id, user_id, type, token, ttl, data, created_at, updated_at`

func (r *PostgresRepo) OperationByToken(
	ctx context.Context,
	tx storage.Tx,
	token string,
	typ models.OperationType,
) (models.UserOperation, error) {
	const op = "storage.postgres.OperationByToken"

	query := `SELECT ` + operationColumns + ` FROM users_operations WHERE token = $1 AND type = $2;`

	o, err := scanOperation(r.conn(tx).QueryRow(ctx, query, token, string(typ)))
	if err != nil {
		return models.UserOperation{}, wrapOperationErr(op, err)
	}

	return o, nil
}

func (r *PostgresRepo) OperationByUser(
	ctx context.Context,
	tx storage.Tx,
	userID int64,
	typ models.OperationType,
) (models.UserOperation, error) {
	const op = "storage.postgres.OperationByUser"

	query := `
		SELECT ` + operationColumns + `
		FROM users_operations
		WHERE user_id = $1 AND type = $2
		ORDER BY id DESC
		LIMIT 1;
	`

	o, err := scanOperation(r.conn(tx).QueryRow(ctx, query, userID, string(typ)))
	if err != nil {
		return models.UserOperation{}, wrapOperationErr(op, err)
	}

	return o, nil
}

func (r *PostgresRepo) SaveOperation(ctx context.Context, tx storage.Tx, o *models.UserOperation) error {
	const op = "storage.postgres.SaveOperation"

	var data []byte
	if o.Data != nil {
		var err error
		if data, err = json.Marshal(o.Data); err != nil {
			return fmt.Errorf("%s: failed to marshal data: %w", op, err)
		}
	}

	query := `
		INSERT INTO users_operations (user_id, type, token, ttl, data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at;
	`

	err := r.conn(tx).QueryRow(ctx, query, o.UserID, string(o.Type), o.Token, o.TTL, data).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) DeleteOperation(ctx context.Context, tx storage.Tx, id int64) error {
	const op = "storage.postgres.DeleteOperation"

	if _, err := r.conn(tx).Exec(ctx, `DELETE FROM users_operations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func scanOperation(row pgx.Row) (models.UserOperation, error) {
	var (
		o    models.UserOperation
		typ  string
		data []byte
	)

	err := row.Scan(&o.ID, &o.UserID, &typ, &o.Token, &o.TTL, &data, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return models.UserOperation{}, err
	}

	o.Type = models.OperationType(typ)

	if len(data) > 0 && string(data) != "null" {
		o.Data = &models.OperationData{}
		if err := json.Unmarshal(data, o.Data); err != nil {
			return models.UserOperation{}, fmt.Errorf("failed to unmarshal operation data: %w", err)
		}
	}

	return o, nil
}

func wrapOperationErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrOperationNotFound
	}

	return fmt.Errorf("%s: %w", op, err)
}
