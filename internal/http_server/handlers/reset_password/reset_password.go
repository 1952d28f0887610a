package resetPassword

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

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Request struct {
	Token          string `json:"token" validate:"required"`
	Password       string `json:"password" validate:"required,min=8,max=128"`
	PasswordRepeat string `json:"password_repeat" validate:"required,eqfield=Password"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
}

type ResetCompleter interface {
	CompleteReset(ctx context.Context, token, newPass, newPassRepeat string) error
}

func New(
	log *slog.Logger,
	validate *validation.Validator,
	completer ResetCompleter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resetPassword.New"

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
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(fieldErrs))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		err = completer.CompleteReset(ctx, req.Token, req.Password, req.PasswordRepeat)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrInvalidOrExpiredToken):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("invalid or expired reset token"))

			return
		case errors.Is(err, auth.ErrPasswordMismatch):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError([]validation.FieldError{
				{Field: "password_repeat", Message: "must match password"},
			}))

			return
		default:
			log.Error("failed to reset password", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		log.Info("password reset completed")

		ResponseOK(w, r)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		Message:  "password updated",
	})
}
