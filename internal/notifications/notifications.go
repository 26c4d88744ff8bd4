package notifications

import (
	"context"
	"log/slog"

	sl "identity_service/internal/lib/logger"
)

type Event string

const (
	EventSignUp           Event = "sign_up"
	EventPasswordRecovery Event = "password_recovery"
	EventPasswordChange   Event = "password_change"
	EventEmailChange      Event = "email_change"
)

type Payload struct {
	Email string
	Token string
}

// * Channel один канал уведомлений (email, ...)
type Channel interface {
	Name() string
	Notify(ctx context.Context, event Event, p Payload) error
}

// * Dispatcher рассылает событие по всем каналам. Ошибка одного канала не мешает остальным
type Dispatcher struct {
	log      *slog.Logger
	channels []Channel
}

func NewDispatcher(log *slog.Logger, channels ...Channel) *Dispatcher {
	return &Dispatcher{
		log:      log,
		channels: channels,
	}
}

func (d *Dispatcher) OnSignUp(ctx context.Context, p Payload) {
	d.dispatch(ctx, EventSignUp, p)
}

func (d *Dispatcher) OnPasswordRecovery(ctx context.Context, p Payload) {
	d.dispatch(ctx, EventPasswordRecovery, p)
}

func (d *Dispatcher) OnPasswordChange(ctx context.Context, p Payload) {
	d.dispatch(ctx, EventPasswordChange, p)
}

func (d *Dispatcher) OnEmailChange(ctx context.Context, p Payload) {
	d.dispatch(ctx, EventEmailChange, p)
}

func (d *Dispatcher) dispatch(ctx context.Context, event Event, p Payload) {
	const op = "notifications.Dispatcher.dispatch"

	for _, ch := range d.channels {
		if err := ch.Notify(ctx, event, p); err != nil {
			d.log.Warn("notification channel failed",
				slog.String("op", op),
				slog.String("channel", ch.Name()),
				slog.String("event", string(event)),
				sl.Err(err),
			)
			continue
		}
	}
}
