package me

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	resp "playlist_auth/internal/lib/api/response"
	sl "playlist_auth/internal/lib/logger"
	"playlist_auth/internal/middleware/authgate"
	"playlist_auth/internal/models"
	"playlist_auth/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type UserGetter interface {
	User(ctx context.Context, id string) (models.User, error)
}

// New serves the profile of the caller. It must be mounted behind authgate.
func New(log *slog.Logger, users UserGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.me.New"

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

		user, err := users.User(ctx, userID)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				log.Info("session subject no longer exists", slog.String("uid", userID))

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("unauthenticated"))

				return
			}

			log.Error("failed to get user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		})
	}
}
