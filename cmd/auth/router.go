package main

import (
	"log/slog"
	"net/http"

	changePassword "playlist_auth/internal/http_server/handlers/change_password"
	deleteAccount "playlist_auth/internal/http_server/handlers/delete_account"
	forgotPassword "playlist_auth/internal/http_server/handlers/forgot_password"
	"playlist_auth/internal/http_server/handlers/login"
	"playlist_auth/internal/http_server/handlers/logout"
	"playlist_auth/internal/http_server/handlers/me"
	"playlist_auth/internal/http_server/handlers/register"
	resetPassword "playlist_auth/internal/http_server/handlers/reset_password"
	"playlist_auth/internal/lib/jwt"
	"playlist_auth/internal/lib/validation"
	"playlist_auth/internal/middleware/authgate"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// credentialService is what the routes need from *auth.Auth.
type credentialService interface {
	register.UserRegisterer
	login.Authenticator
	forgotPassword.ResetRequester
	resetPassword.ResetCompleter
	me.UserGetter
	changePassword.PasswordChanger
	deleteAccount.AccountDeleter
}

func setupRouter(
	log *slog.Logger,
	svc credentialService,
	issuer *jwt.Issuer,
	registry *prometheus.Registry,
	secureCookies bool,
) *chi.Mux {
	validate := validation.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/register", register.New(log, validate, svc))
	r.Post("/login", login.New(log, validate, svc, login.Cookie{
		TTL:    issuer.TTL(),
		Secure: secureCookies,
	}))
	r.Post("/logout", logout.New(secureCookies))
	r.Post("/forgot-password", forgotPassword.New(log, validate, svc))
	r.Post("/reset-password", resetPassword.New(log, validate, svc))

	r.Group(func(r chi.Router) {
		r.Use(authgate.New(log, issuer))

		r.Get("/users/me", me.New(log, svc))
		r.Delete("/users/me", deleteAccount.New(log, svc, secureCookies))
		r.Put("/users/me/password", changePassword.New(log, validate, svc))
	})

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}
