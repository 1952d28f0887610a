package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"playlist_auth/internal/auth"
	resp "playlist_auth/internal/lib/api/response"
	sl "playlist_auth/internal/lib/logger"
	"playlist_auth/internal/lib/validation"
	"playlist_auth/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Request struct {
	Username string `json:"username" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Pass     string `json:"password" validate:"required,min=8,max=128"`
}

type Response struct {
	resp.Response
	UserID string `json:"user_id"`
}

type UserRegisterer interface {
	RegisterNewUser(ctx context.Context, username, email, pass string) (models.User, error)
}

func New(
	log *slog.Logger,
	validate *validation.Validator,
	registerer UserRegisterer,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to decode request"))

			return
		}

		if fieldErrs := validate.Struct(req); fieldErrs != nil {
			log.Info("invalid request", slog.Int("fields", len(fieldErrs)))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(fieldErrs))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, err := registerer.RegisterNewUser(ctx, req.Username, req.Email, req.Pass)
		if err != nil {
			if errors.Is(err, auth.ErrUserExists) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("user already exists"))

				return
			}

			log.Error("failed to register user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("user registered", slog.String("uid", user.ID))

		ResponseOK(w, r, user.ID)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, userID string) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{
		Response: resp.OK(),
		UserID:   userID,
	})
}
