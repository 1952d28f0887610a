package deleteAccount

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "playlist_auth/internal/lib/api/response"
	sl "playlist_auth/internal/lib/logger"
	"playlist_auth/internal/middleware/authgate"
	"playlist_auth/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	Message string `json:"message"`
}

type AccountDeleter interface {
	DeleteUser(ctx context.Context, userID string) error
}

// New deletes the caller's account and clears the session cookie. It must
// be mounted behind authgate.
func New(log *slog.Logger, deleter AccountDeleter, secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.deleteAccount.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, ok := authgate.UserID(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("unauthenticated"))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := deleter.DeleteUser(ctx, userID); err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("unauthenticated"))

				return
			}

			log.Error("failed to delete user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     authgate.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Message:  "account deleted",
		})
	}
}
