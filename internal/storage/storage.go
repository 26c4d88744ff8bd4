package storage

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("user already exists")
	ErrOperationNotFound = errors.New("operation not found")
)

// * Tx транзакция хранилища. Соединение освобождается после Commit или Rollback
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
