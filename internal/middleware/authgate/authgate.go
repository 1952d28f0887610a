package authgate

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	resp "playlist_auth/internal/lib/api/response"
	sl "playlist_auth/internal/lib/logger"
	"playlist_auth/internal/lib/metrics"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

// CookieName is the cookie the session token travels in.
const CookieName = "userToken"

type ctxKey struct{}

type Verifier interface {
	Verify(token string) (string, error)
}

// New returns middleware that lets a request through only when it carries a
// valid session token. The userToken cookie is tried first, then the Bearer
// header, so a stale cookie does not shadow a valid header. The verified
// subject is available to downstream handlers through UserID.
func New(log *slog.Logger, verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authgate"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokens := tokensFromRequest(r)
			if len(tokens) == 0 {
				log.Debug("no session token")
				reject(w, r)

				return
			}

			var (
				userID string
				err    error
			)
			for _, token := range tokens {
				if userID, err = verifier.Verify(token); err == nil {
					break
				}
			}
			if err != nil {
				log.Info("session token rejected", sl.Err(err))
				reject(w, r)

				return
			}

			ctx := context.WithValue(r.Context(), ctxKey{}, userID)

			next.ServeHTTP(w, r.WithContext(ctx))
		}

		return http.HandlerFunc(fn)
	}
}

// UserID returns the subject stored by the gate.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)

	return id, ok && id != ""
}

// WithUserID is used by tests of protected handlers.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// tokensFromRequest returns candidate tokens in the order they are tried.
func tokensFromRequest(r *http.Request) []string {
	var tokens []string

	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		tokens = append(tokens, c.Value)
	}

	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		if t := strings.TrimSpace(h[7:]); t != "" {
			tokens = append(tokens, t)
		}
	}

	return tokens
}

func reject(w http.ResponseWriter, r *http.Request) {
	metrics.RecordGateRejection()

	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, resp.Error("unauthenticated"))
}
