package logout

import (
	"net/http"

	resp "playlist_auth/internal/lib/api/response"
	"playlist_auth/internal/middleware/authgate"

	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	Message string `json:"message"`
}

// New clears the session cookie. Sessions are stateless, so an already
// copied token stays valid until it expires.
func New(secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
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
			Message:  "logged out",
		})
	}
}
