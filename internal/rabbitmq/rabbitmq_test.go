package rabbitmq

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlist_auth/internal/models"
)

func TestPublishing(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	pub, err := publishing(models.Message{
		Email:   "a@x.com",
		Link:    "http://localhost:8080/reset-password?token=T&email=a%40x.com",
		Purpose: models.PurposePasswordReset,
	}, at)
	require.NoError(t, err)

	assert.Equal(t, "application/json", pub.ContentType)
	assert.Equal(t, amqp.Persistent, pub.DeliveryMode)
	assert.Equal(t, at, pub.Timestamp)
	assert.JSONEq(t,
		`{"to":"a@x.com","link":"http://localhost:8080/reset-password?token=T&email=a%40x.com","purpose":"password_reset"}`,
		string(pub.Body),
	)
}
