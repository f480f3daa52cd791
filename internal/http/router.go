package http

import (
	"net/http"
)

type RouterConfig struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Engineers *EngineerHandler
	Bookings  *BookingHandler
	Reports   *ReportHandler
	Health    http.Handler
	// Session guards every /api route except sign-in.
	Session    func(http.Handler) http.Handler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	api := http.NewServeMux()

	if cfg.Health != nil {
		mux.Handle("GET /healthz", cfg.Health)
	}

	if cfg.Auth != nil {
		mux.HandleFunc("POST /api/sessions", cfg.Auth.CreateSession)
		api.HandleFunc("GET /api/sessions/current", cfg.Auth.CurrentSession)
		api.HandleFunc("DELETE /api/sessions/current", cfg.Auth.DeleteCurrentSession)
		api.HandleFunc("PUT /api/sessions/current/password", cfg.Auth.ChangePassword)
	}

	if cfg.Engineers != nil {
		api.HandleFunc("GET /api/engineers", cfg.Engineers.List)
		api.HandleFunc("POST /api/engineers", cfg.Engineers.Create)
		api.HandleFunc("GET /api/engineers/available", cfg.Engineers.Available)
		api.HandleFunc("GET /api/engineers/{login}", cfg.Engineers.Get)
		api.HandleFunc("PUT /api/engineers/{login}", cfg.Engineers.Update)
		api.HandleFunc("DELETE /api/engineers/{login}", cfg.Engineers.Delete)
		api.HandleFunc("GET /api/engineers/{login}/workload", cfg.Engineers.Workload)
	}

	if cfg.Bookings != nil {
		api.HandleFunc("GET /api/engineers/{login}/bookings", cfg.Bookings.ListForEngineer)
		api.HandleFunc("POST /api/engineers/{login}/bookings", cfg.Bookings.Create)
		api.HandleFunc("DELETE /api/engineers/{login}/bookings", cfg.Bookings.DeleteForEngineer)
		api.HandleFunc("GET /api/bookings", cfg.Bookings.ListByProject)
		api.HandleFunc("PATCH /api/bookings", cfg.Bookings.ExtendByProject)
		api.HandleFunc("DELETE /api/bookings/{id}", cfg.Bookings.Delete)
	}

	if cfg.Reports != nil {
		api.HandleFunc("GET /api/engineers/{login}/reports/{year}/{month}", cfg.Reports.Draft)
		api.HandleFunc("PUT /api/engineers/{login}/reports/{year}/{month}", cfg.Reports.Save)
		api.HandleFunc("GET /api/reports/{year}/{month}", cfg.Reports.Consolidated)
	}

	if cfg.Users != nil {
		api.HandleFunc("GET /api/users", cfg.Users.List)
		api.HandleFunc("POST /api/users", cfg.Users.Create)
		api.HandleFunc("GET /api/users/{login}", cfg.Users.Get)
		api.HandleFunc("PUT /api/users/{login}", cfg.Users.Update)
		api.HandleFunc("DELETE /api/users/{login}", cfg.Users.Delete)
		api.HandleFunc("POST /api/users/{login}/password", cfg.Users.ResetPassword)
	}

	var guarded http.Handler = api
	if cfg.Session != nil {
		guarded = cfg.Session(api)
	}
	mux.Handle("/api/", guarded)

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}
