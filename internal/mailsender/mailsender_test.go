package mailSender

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"playlist_auth/internal/models"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}

	f.sent = append(f.sent, m...)

	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_PasswordReset(t *testing.T) {
	d := &fakeDialer{}
	m := NewWithDialer("noreply@playlist.local", d)

	m.Handler(discardLogger())([]byte(`{"to":"a@x.com","link":"http://host/reset-password?token=T","purpose":"password_reset"}`))

	require.Len(t, d.sent, 1)
	msg := d.sent[0]
	assert.Equal(t, []string{"a@x.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"noreply@playlist.local"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"Reset your password"}, msg.GetHeader("Subject"))
}

func TestHandler_BadPayload(t *testing.T) {
	d := &fakeDialer{}
	m := NewWithDialer("noreply@playlist.local", d)

	m.Handler(discardLogger())([]byte(`not json`))

	assert.Empty(t, d.sent)
}

func TestHandler_SendFailureIsSwallowed(t *testing.T) {
	d := &fakeDialer{err: errors.New("smtp down")}
	m := NewWithDialer("noreply@playlist.local", d)

	assert.NotPanics(t, func() {
		m.Handler(discardLogger())([]byte(`{"to":"a@x.com","link":"l","purpose":"other"}`))
	})
}

func TestCompose(t *testing.T) {
	subject, body := compose(models.Message{Purpose: models.PurposePasswordReset, Link: "L"})
	assert.Equal(t, "Reset your password", subject)
	assert.Contains(t, body, "L")
	assert.Contains(t, body, "within 30 minutes")

	subject, body = compose(models.Message{Purpose: "other", Link: "L"})
	assert.Equal(t, "Playlist notification", subject)
	assert.Equal(t, "L", body)
}
