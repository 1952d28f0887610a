package resetPassword

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlist_auth/internal/auth"
	"playlist_auth/internal/lib/validation"
)

type completerFunc func(ctx context.Context, token, newPass, newPassRepeat string) error

func (f completerFunc) CompleteReset(ctx context.Context, token, newPass, newPassRepeat string) error {
	return f(ctx, token, newPass, newPassRepeat)
}

func TestResetPassword(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "ok",
			body:     `{"token":"T","password":"New1!Pass","password_repeat":"New1!Pass"}`,
			wantCode: http.StatusOK,
			wantBody: `{"status":"OK","message":"password updated"}`,
		},
		{
			name:     "token used",
			body:     `{"token":"T","password":"New1!Pass","password_repeat":"New1!Pass"}`,
			err:      fmt.Errorf("auth.CompleteReset: %w", auth.ErrInvalidOrExpiredToken),
			wantCode: http.StatusBadRequest,
			wantBody: `{"status":"Error","error":"invalid or expired reset token"}`,
		},
		{
			name:     "internal",
			body:     `{"token":"T","password":"New1!Pass","password_repeat":"New1!Pass"}`,
			err:      errors.New("db down"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"status":"Error","error":"internal error"}`,
		},
		{
			name:     "mismatch",
			body:     `{"token":"T","password":"New1!Pass","password_repeat":"New2!Pass"}`,
			wantCode: http.StatusBadRequest,
			wantBody: `{"status":"Error","error":"field password_repeat: must match password","fields":[{"field":"password_repeat","message":"must match password"}]}`,
		},
		{
			name:     "missing token",
			body:     `{"password":"New1!Pass","password_repeat":"New1!Pass"}`,
			wantCode: http.StatusBadRequest,
			wantBody: `{"status":"Error","error":"field token: is required","fields":[{"field":"token","message":"is required"}]}`,
		},
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(log, validation.New(), completerFunc(func(_ context.Context, token, _, _ string) error {
				assert.Equal(t, "T", token)
				return tt.err
			}))

			req := httptest.NewRequest(http.MethodPost, "/reset-password", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
