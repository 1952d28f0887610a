package forgotPassword

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	resp "playlist_auth/internal/lib/api/response"
	sl "playlist_auth/internal/lib/logger"
	"playlist_auth/internal/lib/validation"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

// Message is returned whether or not the account exists.
const Message = "if the account exists, a reset link has been sent"

type Request struct {
	Identifier string `json:"identifier" validate:"required,max=100"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
}

type ResetRequester interface {
	RequestReset(ctx context.Context, identifier string) error
}

func New(
	log *slog.Logger,
	validate *validation.Validator,
	requester ResetRequester,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.forgotPassword.New"

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

		// Failures are not surfaced: the response must not depend on
		// whether the account exists.
		if err := requester.RequestReset(ctx, req.Identifier); err != nil {
			log.Error("failed to request password reset", sl.Err(err))
		}

		ResponseOK(w, r)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		Message:  Message,
	})
}
