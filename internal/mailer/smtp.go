package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// gomail не принимает ctx, отмена проверяется только до отправки
func (s *SMTPSender) Send(ctx context.Context, to, subject, html string) error {
	const op = "mailer.SMTPSender.Send"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.dialer.DialAndSend(s.message(to, subject, html)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *SMTPSender) message(to, subject, html string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	return msg
}
