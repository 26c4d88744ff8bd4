package operations

import (
	"context"
	"errors"
	"fmt"

	"identity_service/internal/models"
	"identity_service/internal/storage"
	"identity_service/internal/users"
)

type UserWriter interface {
	MarkVerified(ctx context.Context, tx storage.Tx, id int64) error
	SetPassword(ctx context.Context, tx storage.Tx, id int64, password string) error
	SetPasswordHash(ctx context.Context, tx storage.Tx, id int64, hash []byte) error
	SetEmail(ctx context.Context, tx storage.Tx, id int64, email string) error
	Exists(ctx context.Context, tx storage.Tx, email string) (bool, error)
	Hash(password string) ([]byte, error)
}

type SessionDropper interface {
	DeleteAllSessionsForUser(ctx context.Context, userID int64) error
}

// * SignUpPolicy подтверждение почты после регистрации
type SignUpPolicy struct {
	users UserWriter
}

func NewSignUpPolicy(users UserWriter) *SignUpPolicy {
	return &SignUpPolicy{users: users}
}

func (p *SignUpPolicy) ValidateCreate(_ context.Context, _ storage.Tx, user models.User, _ CreateRequest) (bool, error) {
	return !user.EmailVerified, nil
}

func (p *SignUpPolicy) BuildData(context.Context, CreateRequest) (*models.OperationData, error) {
	return nil, nil
}

func (p *SignUpPolicy) OnApplied(ctx context.Context, tx storage.Tx, op models.UserOperation, _ ApplyRequest) error {
	return p.users.MarkVerified(ctx, tx, op.UserID)
}

// * PasswordRecoveryPolicy восстановление пароля, новый пароль приходит при подтверждении
type PasswordRecoveryPolicy struct {
	users    UserWriter
	sessions SessionDropper
}

func NewPasswordRecoveryPolicy(users UserWriter, sessions SessionDropper) *PasswordRecoveryPolicy {
	return &PasswordRecoveryPolicy{users: users, sessions: sessions}
}

func (p *PasswordRecoveryPolicy) ValidateCreate(_ context.Context, _ storage.Tx, user models.User, _ CreateRequest) (bool, error) {
	return user.EmailVerified, nil
}

func (p *PasswordRecoveryPolicy) BuildData(context.Context, CreateRequest) (*models.OperationData, error) {
	return nil, nil
}

func (p *PasswordRecoveryPolicy) OnApplied(ctx context.Context, tx storage.Tx, op models.UserOperation, req ApplyRequest) error {
	if req.Password == "" {
		return ErrMissingPassword
	}

	if err := p.users.SetPassword(ctx, tx, op.UserID, req.Password); err != nil {
		return err
	}

	return p.sessions.DeleteAllSessionsForUser(ctx, op.UserID)
}

// * PasswordChangePolicy смена пароля. В data хранится уже хеш нового пароля
type PasswordChangePolicy struct {
	users    UserWriter
	sessions SessionDropper
}

func NewPasswordChangePolicy(users UserWriter, sessions SessionDropper) *PasswordChangePolicy {
	return &PasswordChangePolicy{users: users, sessions: sessions}
}

func (p *PasswordChangePolicy) ValidateCreate(context.Context, storage.Tx, models.User, CreateRequest) (bool, error) {
	return true, nil
}

func (p *PasswordChangePolicy) BuildData(_ context.Context, req CreateRequest) (*models.OperationData, error) {
	if req.Data.Password == "" {
		return nil, ErrMissingPassword
	}

	hash, err := p.users.Hash(req.Data.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &models.OperationData{Password: string(hash)}, nil
}

func (p *PasswordChangePolicy) OnApplied(ctx context.Context, tx storage.Tx, op models.UserOperation, _ ApplyRequest) error {
	if op.Data == nil || op.Data.Password == "" {
		return ErrMissingPassword
	}

	if err := p.users.SetPasswordHash(ctx, tx, op.UserID, []byte(op.Data.Password)); err != nil {
		return err
	}

	return p.sessions.DeleteAllSessionsForUser(ctx, op.UserID)
}

// * EmailChangePolicy смена почты. Занятость адреса проверяется и при создании, и при применении
type EmailChangePolicy struct {
	users    UserWriter
	sessions SessionDropper
}

func NewEmailChangePolicy(users UserWriter, sessions SessionDropper) *EmailChangePolicy {
	return &EmailChangePolicy{users: users, sessions: sessions}
}

func (p *EmailChangePolicy) ValidateCreate(ctx context.Context, tx storage.Tx, user models.User, req CreateRequest) (bool, error) {
	if !user.HasPassword {
		return false, nil
	}

	if req.Data.Email == "" {
		return false, ErrMissingEmail
	}

	if err := p.checkEmail(ctx, tx, req.Data.Email); err != nil {
		return false, err
	}

	return true, nil
}

func (p *EmailChangePolicy) BuildData(_ context.Context, req CreateRequest) (*models.OperationData, error) {
	return &models.OperationData{Email: users.NormalizeEmail(req.Data.Email)}, nil
}

func (p *EmailChangePolicy) OnApplied(ctx context.Context, tx storage.Tx, op models.UserOperation, _ ApplyRequest) error {
	if op.Data == nil || op.Data.Email == "" {
		return ErrMissingEmail
	}

	if err := p.checkEmail(ctx, tx, op.Data.Email); err != nil {
		return err
	}

	if err := p.users.SetEmail(ctx, tx, op.UserID, op.Data.Email); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return ErrEmailTaken
		}
		return err
	}

	return p.sessions.DeleteAllSessionsForUser(ctx, op.UserID)
}

func (p *EmailChangePolicy) checkEmail(ctx context.Context, tx storage.Tx, email string) error {
	taken, err := p.users.Exists(ctx, tx, email)
	if err != nil {
		return err
	}

	if taken {
		return ErrEmailTaken
	}

	return nil
}
