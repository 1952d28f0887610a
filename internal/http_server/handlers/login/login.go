package login

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

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Request struct {
	Username string `json:"username" validate:"required,max=100"`
	Pass     string `json:"password" validate:"required,max=128"`
}

type Response struct {
	resp.Response
	Token   string `json:"token"`
	Message string `json:"message"`
}

type Authenticator interface {
	Login(ctx context.Context, username, pass string) (string, error)
}

// Cookie controls the session cookie set on successful login.
type Cookie struct {
	TTL    time.Duration
	Secure bool
}

func New(
	log *slog.Logger,
	validate *validation.Validator,
	authenticator Authenticator,
	cookie Cookie,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

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

		token, err := authenticator.Login(ctx, req.Username, req.Pass)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("invalid credentials"))

				return
			}

			log.Error("failed to login user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))

			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     authgate.CookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(cookie.TTL.Seconds()),
			HttpOnly: true,
			Secure:   cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})

		ResponseOK(w, r, token)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, token string) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		Token:    token,
		Message:  "logged in",
	})
}
