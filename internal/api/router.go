package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/premiki/internal/report"
	"github.com/erazemk/premiki/internal/transfer"
)

// Options holds the dependencies of the API.
type Options struct {
	DB        *sql.DB
	JWTSecret string
	Transfers *transfer.Service
	Reports   *report.Engine
	Cache     *report.Cache
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(opts Options) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: opts.DB, JWTSecret: opts.JWTSecret, Reports: opts.Cache}
	usersHandler := &UsersHandler{DB: opts.DB}
	locationsHandler := &LocationsHandler{DB: opts.DB}
	itemsHandler := &ItemsHandler{DB: opts.DB}
	transfersHandler := &TransfersHandler{Transfers: opts.Transfers}
	reportsHandler := &ReportsHandler{Engine: opts.Reports, Cache: opts.Cache}

	authMW := AuthMiddleware(opts.JWTSecret, opts.DB)
	user := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(RequireAdmin(h)) }

	// Public.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/signup", authHandler.Signup)

	mux.Handle("POST /api/auth/logout", user(authHandler.Logout))
	mux.Handle("PUT /api/auth/password", user(authHandler.ChangePassword))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}/activate", admin(usersHandler.Activate))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	mux.Handle("GET /api/locations", user(locationsHandler.List))
	mux.Handle("POST /api/locations", user(locationsHandler.Create))
	mux.Handle("GET /api/locations/{id}", user(locationsHandler.Get))
	mux.Handle("PUT /api/locations/{id}", user(locationsHandler.Update))
	mux.Handle("DELETE /api/locations/{id}", user(locationsHandler.Delete))

	mux.Handle("GET /api/items", user(itemsHandler.List))
	mux.Handle("POST /api/items", user(itemsHandler.Create))
	mux.Handle("POST /api/items/import", user(itemsHandler.Import))
	mux.Handle("GET /api/items/{id}", user(itemsHandler.Get))
	mux.Handle("PUT /api/items/{id}", user(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", user(itemsHandler.Delete))
	mux.Handle("PUT /api/items/{id}/image", user(itemsHandler.UploadImage))
	mux.Handle("GET /api/items/{id}/image", user(itemsHandler.GetImage))

	mux.Handle("GET /api/transfers", user(transfersHandler.List))
	mux.Handle("POST /api/transfers", user(transfersHandler.Create))
	mux.Handle("GET /api/transfers/{id}", user(transfersHandler.Get))
	mux.Handle("PUT /api/transfers/{id}", user(transfersHandler.Update))
	mux.Handle("DELETE /api/transfers/{id}", user(transfersHandler.Delete))
	mux.Handle("POST /api/transfers/{id}/complete", user(transfersHandler.Complete))
	mux.Handle("POST /api/transfers/{id}/reopen", user(transfersHandler.Reopen))

	mux.Handle("POST /api/reports", user(reportsHandler.Generate))
	mux.Handle("GET /api/reports/last", user(reportsHandler.Last))
	mux.Handle("GET /api/reports/last.csv", user(reportsHandler.LastCSV))

	return mux
}
