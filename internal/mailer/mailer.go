package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"identity_service/internal/config"
	sl "identity_service/internal/lib/logger"
	"identity_service/internal/models"
)

var (
	ErrUnknownTemplate = errors.New("unknown template")
	ErrUnknownProvider = errors.New("unknown mail provider")
	ErrInvalidMessage  = errors.New("invalid email message")
)

// * Sender доставка готового html письма
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// * NewSender выбирает провайдера по конфигу
func NewSender(cfg config.Mailer) (Sender, error) {
	switch cfg.Provider {
	case config.ProviderSMTP:
		return NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.From), nil
	case config.ProviderResend:
		if cfg.Resend.APIKey == "" {
			return nil, fmt.Errorf("mailer.NewSender: resend api key is empty")
		}
		return NewResendSender(cfg.Resend.APIKey, cfg.From), nil
	default:
		return nil, fmt.Errorf("mailer.NewSender: %w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

type Mailer struct {
	log       *slog.Logger
	templates *Templates
	sender    Sender
}

func New(log *slog.Logger, templates *Templates, sender Sender) *Mailer {
	return &Mailer{
		log:       log,
		templates: templates,
		sender:    sender,
	}
}

// * Handle обработчик сообщения из очереди notification_email
func (m *Mailer) Handle(ctx context.Context, raw []byte) error {
	const op = "mailer.Handle"

	log := m.log.With(slog.String("op", op))

	var msg models.EmailMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Error("failed to unmarshal message", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if msg.To == "" {
		log.Error("message without recipient")
		return fmt.Errorf("%s: %w", op, ErrInvalidMessage)
	}

	html, err := m.templates.Render(msg)
	if err != nil {
		log.Error("failed to render message", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := m.sender.Send(ctx, msg.To, msg.Subject, html); err != nil {
		log.Error("failed to send message", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("message sent successfully", slog.String("subject", msg.Subject))

	return nil
}
