package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sl "identity_service/internal/lib/logger"
	"identity_service/internal/models"
	"identity_service/internal/notifications"
	"identity_service/internal/operations"
	"identity_service/internal/storage"
	"identity_service/internal/users"
)

var (
	ErrUserExists        = errors.New("user already exists")
	ErrWrongPassword     = errors.New("wrong password")
	ErrNotVerified       = errors.New("email not verified")
	ErrOperationNotFound = errors.New("operation not found")
	ErrInvalidSession    = errors.New("invalid session")
	ErrUnauthorized      = errors.New("unauthorized")
)

type UserStore interface {
	Create(ctx context.Context, tx storage.Tx, email, password string) (models.User, error)
	Exists(ctx context.Context, tx storage.Tx, email string) (bool, error)
	WithPassword(ctx context.Context, email string) (models.User, error)
	ByID(ctx context.Context, tx storage.Tx, id int64) (models.User, error)
}

type TxBeginner interface {
	Begin(ctx context.Context) (storage.Tx, error)
}

type SessionCache interface {
	Create(ctx context.Context, payload models.SessionPayload, ttl time.Duration) (string, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteAllSessionsForUser(ctx context.Context, userID int64) error
}

type TokenIssuer interface {
	CreateTokens(sessionID string) (models.Tokens, error)
	ParseAccess(token string) (string, error)
	ParseRefresh(token string) (string, error)
	RefreshTTL() time.Duration
}

type OperationEngine interface {
	Create(ctx context.Context, tx storage.Tx, req operations.CreateRequest) (*models.UserOperation, error)
	Apply(ctx context.Context, tx storage.Tx, req operations.ApplyRequest) (*models.UserOperation, error)
}

type Notifier interface {
	OnSignUp(ctx context.Context, p notifications.Payload)
	OnPasswordRecovery(ctx context.Context, p notifications.Payload)
	OnPasswordChange(ctx context.Context, p notifications.Payload)
	OnEmailChange(ctx context.Context, p notifications.Payload)
}

type Engines struct {
	SignUp           OperationEngine
	PasswordRecovery OperationEngine
	PasswordChange   OperationEngine
	EmailChange      OperationEngine
}

type Auth struct {
	log      *slog.Logger
	users    UserStore
	txs      TxBeginner
	sessions SessionCache
	tokens   TokenIssuer
	ops      Engines
	notifier Notifier
}

func New(
	log *slog.Logger,
	users UserStore,
	txs TxBeginner,
	sessions SessionCache,
	tokens TokenIssuer,
	engines Engines,
	notifier Notifier,
) *Auth {
	return &Auth{
		log:      log,
		users:    users,
		txs:      txs,
		sessions: sessions,
		tokens:   tokens,
		ops:      engines,
		notifier: notifier,
	}
}

// * SignUp создает пользователя и операцию SIGN_UP в одной транзакции, письмо уходит после commit
func (a *Auth) SignUp(ctx context.Context, email, password string) error {
	const op = "auth.SignUp"

	log := a.log.With(slog.String("op", op))

	exists, err := a.users.Exists(ctx, nil, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		log.Info("user already exists")
		return ErrUserExists
	}

	tx, err := a.txs.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.users.Create(ctx, tx, email, password)
	if err != nil {
		a.rollback(ctx, tx, log)

		if errors.Is(err, storage.ErrUserExists) {
			return ErrUserExists
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	signUp, err := a.ops.SignUp.Create(ctx, tx, operations.CreateRequest{Subject: operations.ForUser(user)})
	if err != nil {
		a.rollback(ctx, tx, log)
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user registered", slog.Int64("uid", user.ID))

	if signUp != nil {
		a.notifier.OnSignUp(ctx, notifications.Payload{Email: user.Email, Token: signUp.Token})
	}

	return nil
}

func (a *Auth) SignUpConfirm(ctx context.Context, token string) error {
	const op = "auth.SignUpConfirm"

	applied, err := a.ops.SignUp.Apply(ctx, nil, operations.ApplyRequest{Token: token})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if applied == nil {
		return ErrOperationNotFound
	}

	a.log.Info("email confirmed", slog.String("op", op), slog.Int64("uid", applied.UserID))

	return nil
}

// * SignUpResend ничего не сообщает о том, есть ли такой пользователь
func (a *Auth) SignUpResend(ctx context.Context, email string) error {
	const op = "auth.SignUpResend"

	signUp, err := a.ops.SignUp.Create(ctx, nil, operations.CreateRequest{Subject: operations.ForEmail(email)})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if signUp == nil {
		return nil
	}

	a.notifier.OnSignUp(ctx, notifications.Payload{Email: users.NormalizeEmail(email), Token: signUp.Token})

	return nil
}

// * SignIn одна и та же ошибка для несуществующего пользователя и неверного пароля
func (a *Auth) SignIn(ctx context.Context, email, password string) (models.Tokens, error) {
	const op = "auth.SignIn"

	log := a.log.With(slog.String("op", op))

	user, err := a.users.WithPassword(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("user not found")
			return models.Tokens{}, ErrWrongPassword
		}

		log.Error("failed to get user", sl.Err(err))
		return models.Tokens{}, fmt.Errorf("%s: %w", op, err)
	}

	if !users.ComparePassword(user.PassHash, password) {
		log.Info("invalid credentials", slog.Int64("uid", user.ID))
		return models.Tokens{}, ErrWrongPassword
	}

	if !user.EmailVerified {
		return models.Tokens{}, ErrNotVerified
	}

	tokens, err := a.issue(ctx, user.ID)
	if err != nil {
		log.Error("failed to create session", sl.Err(err))
		return models.Tokens{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.Int64("uid", user.ID))

	return tokens, nil
}

// * Refresh всегда создает новую сессию для того же пользователя
func (a *Auth) Refresh(ctx context.Context, s models.Session) (models.Tokens, error) {
	const op = "auth.Refresh"

	tokens, err := a.issue(ctx, s.UserID)
	if err != nil {
		return models.Tokens{}, fmt.Errorf("%s: %w", op, err)
	}

	return tokens, nil
}

func (a *Auth) PasswordRecovery(ctx context.Context, email string) error {
	const op = "auth.PasswordRecovery"

	recovery, err := a.ops.PasswordRecovery.Create(ctx, nil, operations.CreateRequest{Subject: operations.ForEmail(email)})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if recovery == nil {
		return nil
	}

	a.notifier.OnPasswordRecovery(ctx, notifications.Payload{Email: users.NormalizeEmail(email), Token: recovery.Token})

	return nil
}

func (a *Auth) PasswordRecoveryConfirm(ctx context.Context, token, password string) error {
	const op = "auth.PasswordRecoveryConfirm"

	applied, err := a.ops.PasswordRecovery.Apply(ctx, nil, operations.ApplyRequest{Token: token, Password: password})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if applied == nil {
		return ErrOperationNotFound
	}

	return nil
}

func (a *Auth) PasswordChange(ctx context.Context, s models.Session, password string) error {
	const op = "auth.PasswordChange"

	user, err := a.users.ByID(ctx, nil, s.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrInvalidSession
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	change, err := a.ops.PasswordChange.Create(ctx, nil, operations.CreateRequest{
		Subject: operations.ForUser(user),
		Data:    models.OperationData{Password: password},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if change == nil {
		return nil
	}

	a.notifier.OnPasswordChange(ctx, notifications.Payload{Email: user.Email, Token: change.Token})

	return nil
}

func (a *Auth) PasswordChangeConfirm(ctx context.Context, token string) error {
	const op = "auth.PasswordChangeConfirm"

	applied, err := a.ops.PasswordChange.Apply(ctx, nil, operations.ApplyRequest{Token: token})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if applied == nil {
		return ErrOperationNotFound
	}

	return nil
}

// * EmailChange письмо с кодом уходит на новый адрес
func (a *Auth) EmailChange(ctx context.Context, s models.Session, email string) error {
	const op = "auth.EmailChange"

	change, err := a.ops.EmailChange.Create(ctx, nil, operations.CreateRequest{
		Subject: operations.ForID(s.UserID),
		Data:    models.OperationData{Email: email},
	})
	if err != nil {
		if errors.Is(err, operations.ErrEmailTaken) {
			return ErrUserExists
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if change == nil || change.Data == nil {
		return nil
	}

	a.notifier.OnEmailChange(ctx, notifications.Payload{Email: change.Data.Email, Token: change.Token})

	return nil
}

func (a *Auth) EmailChangeConfirm(ctx context.Context, token string) error {
	const op = "auth.EmailChangeConfirm"

	applied, err := a.ops.EmailChange.Apply(ctx, nil, operations.ApplyRequest{Token: token})
	if err != nil {
		if errors.Is(err, operations.ErrEmailTaken) {
			return ErrUserExists
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if applied == nil {
		return ErrOperationNotFound
	}

	return nil
}

func (a *Auth) Logout(ctx context.Context, s models.Session) error {
	const op = "auth.Logout"

	if err := a.sessions.DeleteSession(ctx, s.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (a *Auth) LogoutAll(ctx context.Context, s models.Session) error {
	const op = "auth.LogoutAll"

	if err := a.sessions.DeleteAllSessionsForUser(ctx, s.UserID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * issue создает сессию с ttl refresh токена и подписывает пару токенов
func (a *Auth) issue(ctx context.Context, userID int64) (models.Tokens, error) {
	sessionID, err := a.sessions.Create(ctx, models.SessionPayload{UserID: userID}, a.tokens.RefreshTTL())
	if err != nil {
		return models.Tokens{}, err
	}

	return a.tokens.CreateTokens(sessionID)
}

func (a *Auth) rollback(ctx context.Context, tx storage.Tx, log *slog.Logger) {
	if err := tx.Rollback(ctx); err != nil {
		log.Error("failed to rollback transaction", sl.Err(err))
	}
}
