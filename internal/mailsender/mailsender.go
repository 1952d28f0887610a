package mailSender

import (
	"encoding/json"
	"fmt"
	"log/slog"

	sl "playlist_auth/internal/lib/logger"
	"playlist_auth/internal/models"

	"gopkg.in/gomail.v2"
)

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	From   string
	dialer Dialer
}

func New(host string, port int, username, password string) *Mailer {
	return &Mailer{
		From:   username,
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

func NewWithDialer(from string, d Dialer) *Mailer {
	return &Mailer{From: from, dialer: d}
}

func (m *Mailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.From)
	msg.SetHeader("Subject", subject)

	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}

// Handler returns a queue callback that decodes a models.Message and mails
// it. Failures are logged; nothing is retried.
func (m *Mailer) Handler(log *slog.Logger) func(body []byte) {
	return func(body []byte) {
		const op = "mailSender.Handler"

		log := log.With(slog.String("op", op))

		var msg models.Message
		if err := json.Unmarshal(body, &msg); err != nil {
			log.Error("failed to unmarshal message", sl.Err(err))
			return
		}

		subject, text := compose(msg)

		if err := m.Send(msg.Email, subject, text); err != nil {
			log.Error("failed to send message", sl.Err(err))
			return
		}

		log.Info("message sent successfully", slog.String("purpose", msg.Purpose))
	}
}

func compose(msg models.Message) (subject, body string) {
	switch msg.Purpose {
	case models.PurposePasswordReset:
		return "Reset your password",
			fmt.Sprintf("Someone asked to reset the password for this account.\n\n"+
				"Open the link below within %d minutes to choose a new password:\n%s\n\n"+
				"If this was not you, ignore this email.", int(models.ResetTokenTTL.Minutes()), msg.Link)
	default:
		return "Playlist notification", msg.Link
	}
}
