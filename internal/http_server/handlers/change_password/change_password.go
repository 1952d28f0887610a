package changePassword

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
	"playlist_auth/internal/middleware/authgate"
	"playlist_auth/internal/storage"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Request struct {
	Password       string `json:"password" validate:"required,min=8,max=128"`
	PasswordRepeat string `json:"password_repeat" validate:"required,eqfield=Password"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
}

type PasswordChanger interface {
	ChangePassword(ctx context.Context, userID, newPass, newPassRepeat string) error
}

// New sets a new password for the caller. It must be mounted behind authgate.
func New(
	log *slog.Logger,
	validate *validation.Validator,
	changer PasswordChanger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.changePassword.New"

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

		err = changer.ChangePassword(ctx, userID, req.Password, req.PasswordRepeat)
		switch {
		case err == nil:
		case errors.Is(err, storage.ErrUserNotFound):
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("unauthenticated"))

			return
		case errors.Is(err, auth.ErrPasswordMismatch):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError([]validation.FieldError{
				{Field: "password_repeat", Message: "must match password"},
			}))

			return
		default:
			log.Error("failed to change password", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		ResponseOK(w, r)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		Message:  "password updated",
	})
}
