package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sl "identity_service/internal/lib/logger"
	"identity_service/internal/models"
	"identity_service/internal/storage"

	"github.com/google/uuid"
)

var (
	ErrEmailTaken      = errors.New("email already taken")
	ErrMissingPassword = errors.New("password is required")
	ErrMissingEmail    = errors.New("email is required")
)

type OperationStore interface {
	OperationByToken(ctx context.Context, tx storage.Tx, token string, typ models.OperationType) (models.UserOperation, error)
	OperationByUser(ctx context.Context, tx storage.Tx, userID int64, typ models.OperationType) (models.UserOperation, error)
	SaveOperation(ctx context.Context, tx storage.Tx, o *models.UserOperation) error
	DeleteOperation(ctx context.Context, tx storage.Tx, id int64) error
}

type UserFinder interface {
	ByID(ctx context.Context, tx storage.Tx, id int64) (models.User, error)
	ByEmail(ctx context.Context, tx storage.Tx, email string) (models.User, error)
}

type TxBeginner interface {
	Begin(ctx context.Context) (storage.Tx, error)
}

// * Policy доменная часть операции: проверка при создании, данные и эффект после применения
type Policy interface {
	// false без ошибки означает тихий отказ, строка не создается
	ValidateCreate(ctx context.Context, tx storage.Tx, user models.User, req CreateRequest) (bool, error)
	BuildData(ctx context.Context, req CreateRequest) (*models.OperationData, error)
	OnApplied(ctx context.Context, tx storage.Tx, op models.UserOperation, req ApplyRequest) error
}

// * Subject пользователь, для которого создается операция: сущность, id или email
type Subject struct {
	User  *models.User
	ID    int64
	Email string
}

func ForUser(u models.User) Subject {
	return Subject{User: &u}
}

func ForID(id int64) Subject {
	return Subject{ID: id}
}

func ForEmail(email string) Subject {
	return Subject{Email: email}
}

type CreateRequest struct {
	Subject Subject
	Data    models.OperationData
}

type ApplyRequest struct {
	Token    string
	Password string
}

type Deps struct {
	Operations OperationStore
	Users      UserFinder
	Tx         TxBeginner
}

// * Engine общий протокол create/apply/close для одного типа операции.
// Не больше одной живой операции на пару (user_id, type).
// Если tx передан снаружи, Engine никогда не вызывает Commit/Rollback.
type Engine struct {
	log      *slog.Logger
	typ      models.OperationType
	ttl      time.Duration
	policy   Policy
	ops      OperationStore
	users    UserFinder
	txs      TxBeginner
	now      func() time.Time
	newToken func() string
}

func NewEngine(log *slog.Logger, typ models.OperationType, ttl time.Duration, policy Policy, deps Deps) *Engine {
	return &Engine{
		log:      log.With(slog.String("operation", typ.String())),
		typ:      typ,
		ttl:      ttl,
		policy:   policy,
		ops:      deps.Operations,
		users:    deps.Users,
		txs:      deps.Tx,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

func (e *Engine) Type() models.OperationType {
	return e.typ
}

// * Create закрывает прежнюю операцию пользователя и создает новую.
// Возвращает nil, nil при тихом отказе. Со своей транзакцией ошибки инфраструктуры
// логируются и проглатываются, с чужой возвращаются вызывающему.
func (e *Engine) Create(ctx context.Context, tx storage.Tx, req CreateRequest) (*models.UserOperation, error) {
	const op = "operations.Engine.Create"

	log := e.log.With(slog.String("op", op))

	if tx != nil {
		return e.create(ctx, tx, req)
	}

	tx, err := e.txs.Begin(ctx)
	if err != nil {
		log.Error("failed to begin transaction", sl.Err(err))
		return nil, nil
	}

	created, err := e.create(ctx, tx, req)
	if err != nil {
		e.rollback(ctx, tx, log)

		if isRejection(err) {
			return nil, err
		}

		log.Error("failed to create operation", sl.Err(err))
		return nil, nil
	}

	if created == nil {
		e.rollback(ctx, tx, log)
		return nil, nil
	}

	if err := tx.Commit(ctx); err != nil {
		log.Error("failed to commit transaction", sl.Err(err))
		return nil, nil
	}

	log.Debug("operation created", slog.Int64("user_id", created.UserID))

	return created, nil
}

// * Apply применяет операцию по токену. nil, nil если токена нет, тип другой или срок истек.
// Ошибки всегда возвращаются, своя транзакция при этом откатывается.
func (e *Engine) Apply(ctx context.Context, tx storage.Tx, req ApplyRequest) (*models.UserOperation, error) {
	const op = "operations.Engine.Apply"

	log := e.log.With(slog.String("op", op))

	if tx != nil {
		return e.apply(ctx, tx, req)
	}

	tx, err := e.txs.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	applied, err := e.apply(ctx, tx, req)
	if err != nil {
		e.rollback(ctx, tx, log)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if applied == nil {
		e.rollback(ctx, tx, log)
		return nil, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("operation applied", slog.Int64("user_id", applied.UserID))

	return applied, nil
}

func (e *Engine) create(ctx context.Context, tx storage.Tx, req CreateRequest) (*models.UserOperation, error) {
	user, err := e.resolve(ctx, tx, req.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}

	ok, err := e.policy.ValidateCreate(ctx, tx, user, req)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	data, err := e.policy.BuildData(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := e.close(ctx, tx, user.ID); err != nil {
		return nil, err
	}

	operation := &models.UserOperation{
		UserID: user.ID,
		Type:   e.typ,
		Token:  e.newToken(),
		TTL:    e.now().Add(e.ttl),
		Data:   data,
	}

	if err := e.ops.SaveOperation(ctx, tx, operation); err != nil {
		return nil, err
	}

	return operation, nil
}

func (e *Engine) apply(ctx context.Context, tx storage.Tx, req ApplyRequest) (*models.UserOperation, error) {
	operation, err := e.ops.OperationByToken(ctx, tx, req.Token, e.typ)
	if err != nil {
		if errors.Is(err, storage.ErrOperationNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if operation.Type != e.typ || operation.IsExpired(e.now()) {
		return nil, nil
	}

	if err := e.close(ctx, tx, operation.UserID); err != nil {
		return nil, err
	}

	if err := e.policy.OnApplied(ctx, tx, operation, req); err != nil {
		return nil, err
	}

	return &operation, nil
}

// * close удаляет живую операцию пользователя этого типа, если она есть
func (e *Engine) close(ctx context.Context, tx storage.Tx, userID int64) error {
	existing, err := e.ops.OperationByUser(ctx, tx, userID, e.typ)
	if err != nil {
		if errors.Is(err, storage.ErrOperationNotFound) {
			return nil
		}
		return err
	}

	return e.ops.DeleteOperation(ctx, tx, existing.ID)
}

func (e *Engine) resolve(ctx context.Context, tx storage.Tx, s Subject) (models.User, error) {
	switch {
	case s.User != nil:
		return *s.User, nil
	case s.ID != 0:
		return e.users.ByID(ctx, tx, s.ID)
	case s.Email != "":
		return e.users.ByEmail(ctx, tx, s.Email)
	}

	return models.User{}, storage.ErrUserNotFound
}

func (e *Engine) rollback(ctx context.Context, tx storage.Tx, log *slog.Logger) {
	if err := tx.Rollback(ctx); err != nil {
		log.Error("failed to rollback transaction", sl.Err(err))
	}
}

func isRejection(err error) bool {
	return errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrMissingPassword) ||
		errors.Is(err, ErrMissingEmail)
}
