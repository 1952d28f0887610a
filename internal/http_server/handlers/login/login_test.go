package login

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlist_auth/internal/auth"
	"playlist_auth/internal/lib/validation"
	"playlist_auth/internal/middleware/authgate"
)

type authenticatorFunc func(ctx context.Context, username, pass string) (string, error)

func (f authenticatorFunc) Login(ctx context.Context, username, pass string) (string, error) {
	return f(ctx, username, pass)
}

func serve(t *testing.T, svc Authenticator, body string) *httptest.ResponseRecorder {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(log, validation.New(), svc, Cookie{TTL: 24 * time.Hour, Secure: true})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestLoginHandler_SetsCookie(t *testing.T) {
	rec := serve(t, authenticatorFunc(func(_ context.Context, username, pass string) (string, error) {
		assert.Equal(t, "alice", username)
		assert.Equal(t, "Str0ng!Pass", pass)
		return "signed.jwt.token", nil
	}), `{"username":"alice","password":"Str0ng!Pass"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","token":"signed.jwt.token","message":"logged in"}`, rec.Body.String())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	c := cookies[0]
	assert.Equal(t, authgate.CookieName, c.Name)
	assert.Equal(t, "signed.jwt.token", c.Value)
	assert.Equal(t, 86400, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestLoginHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		body     string
		wantCode int
	}{
		{
			name:     "invalid credentials",
			err:      auth.ErrInvalidCredentials,
			body:     `{"username":"alice","password":"wrong"}`,
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "internal",
			err:      errors.New("hashing failure"),
			body:     `{"username":"alice","password":"Str0ng!Pass"}`,
			wantCode: http.StatusInternalServerError,
		},
		{
			name:     "missing password",
			body:     `{"username":"alice"}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, authenticatorFunc(func(context.Context, string, string) (string, error) {
				return "", tt.err
			}), tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}
