package notifications

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"identity_service/internal/models"
)

const EmailQueue = "notification_email"

type Sink interface {
	Send(ctx context.Context, queue string, payload any) error
}

type emailMessage struct {
	subject string
	body    string
	button  string
	path    string
	param   string
}

var emailMessages = map[Event]emailMessage{
	EventSignUp: {
		subject: "Sign up",
		body:    "Hello",
		button:  "Confirm",
		path:    "/auth?mode=sign-in",
		param:   "confirmCode",
	},
	EventPasswordRecovery: {
		subject: "Password recovery",
		body:    "Password recovery",
		button:  "Confirm",
		path:    "/auth/recovery-password",
		param:   "passwordRecoveryCode",
	},
	EventPasswordChange: {
		subject: "Password change",
		body:    "Password change",
		button:  "Confirm",
		path:    "/auth?mode=change-password",
		param:   "recoveryCode",
	},
	EventEmailChange: {
		subject: "Email change",
		body:    "Email change",
		button:  "Confirm",
		path:    "/profile?mode=email-change",
		param:   "emailChangeCode",
	},
}

// * EmailChannel кладет письмо в очередь notification_email, отправкой занимается email_sender
type EmailChannel struct {
	sink    Sink
	queue   string
	baseURL string
}

func NewEmailChannel(sink Sink, queue, baseURL string) *EmailChannel {
	if queue == "" {
		queue = EmailQueue
	}

	return &EmailChannel{
		sink:    sink,
		queue:   queue,
		baseURL: baseURL,
	}
}

func (c *EmailChannel) Name() string {
	return "email"
}

func (c *EmailChannel) Notify(ctx context.Context, event Event, p Payload) error {
	const op = "notifications.EmailChannel.Notify"

	msg, err := c.Message(event, p)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := c.sink.Send(ctx, c.queue, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *EmailChannel) Message(event Event, p Payload) (models.EmailMessage, error) {
	m, ok := emailMessages[event]
	if !ok {
		return models.EmailMessage{}, fmt.Errorf("unknown event %q", event)
	}

	return models.EmailMessage{
		To:       p.Email,
		Subject:  m.subject,
		Template: models.TemplateWithButton,
		Payload: models.EmailPayload{
			Body:   m.body,
			URL:    c.link(m, p.Token),
			Button: m.button,
		},
	}, nil
}

func (c *EmailChannel) link(m emailMessage, token string) string {
	sep := "?"
	if strings.Contains(m.path, "?") {
		sep = "&"
	}

	return fmt.Sprintf("https://%s%s%s%s=%s", c.baseURL, m.path, sep, m.param, url.QueryEscape(token))
}
