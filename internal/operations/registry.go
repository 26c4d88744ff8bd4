package operations

import (
	"fmt"
	"log/slog"
	"time"

	"identity_service/internal/models"
)

type Registration struct {
	Type   models.OperationType
	TTL    time.Duration
	Policy Policy
}

// * Registry таблица тип операции -> Engine
type Registry struct {
	engines map[models.OperationType]*Engine
}

func NewRegistry(log *slog.Logger, deps Deps, table []Registration) (*Registry, error) {
	const op = "operations.NewRegistry"

	r := &Registry{engines: make(map[models.OperationType]*Engine, len(table))}

	for _, reg := range table {
		if reg.Policy == nil {
			return nil, fmt.Errorf("%s: %s has no policy", op, reg.Type)
		}
		if reg.TTL <= 0 {
			return nil, fmt.Errorf("%s: %s has no ttl", op, reg.Type)
		}
		if _, ok := r.engines[reg.Type]; ok {
			return nil, fmt.Errorf("%s: %s registered twice", op, reg.Type)
		}

		r.engines[reg.Type] = NewEngine(log, reg.Type, reg.TTL, reg.Policy, deps)
	}

	return r, nil
}

// * Table стандартный набор операций сервиса
func Table(users UserWriter, sessions SessionDropper, ttl map[models.OperationType]time.Duration) []Registration {
	return []Registration{
		{Type: models.OperationSignUp, TTL: ttl[models.OperationSignUp], Policy: NewSignUpPolicy(users)},
		{Type: models.OperationPasswordRecovery, TTL: ttl[models.OperationPasswordRecovery], Policy: NewPasswordRecoveryPolicy(users, sessions)},
		{Type: models.OperationPasswordChange, TTL: ttl[models.OperationPasswordChange], Policy: NewPasswordChangePolicy(users, sessions)},
		{Type: models.OperationEmailChange, TTL: ttl[models.OperationEmailChange], Policy: NewEmailChangePolicy(users, sessions)},
	}
}

func (r *Registry) Engine(typ models.OperationType) (*Engine, error) {
	e, ok := r.engines[typ]
	if !ok {
		return nil, fmt.Errorf("operations: no engine for %s", typ)
	}

	return e, nil
}

// * MustEngine для типов, которые точно есть в таблице
func (r *Registry) MustEngine(typ models.OperationType) *Engine {
	e, err := r.Engine(typ)
	if err != nil {
		panic(err)
	}

	return e
}
