package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Logger writes one structured access-log line per request.
func Logger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()),
				"remote", r.RemoteAddr,
			)
		})
	}
}

// CORS allows any origin to call the API with a bearer token.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Mount registers every API route on r.
func Mount(r chi.Router, events *EventHandler, accounts *AccountHandler) {
	r.Get("/health", HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/organizers", func(r chi.Router) {
			r.Post("/register", accounts.RegisterOrganizer)
			r.Post("/login", accounts.LoginOrganizer)
			r.Get("/profile", accounts.OrganizerProfile)
			r.Patch("/profile", accounts.UpdateOrganizerProfile)
			r.Get("/dashboard", accounts.Dashboard)
		})

		r.Route("/attendees", func(r chi.Router) {
			r.Post("/register", accounts.RegisterAttendee)
			r.Post("/login", accounts.LoginAttendee)
			r.Get("/profile", accounts.AttendeeProfile)
			r.Patch("/profile", accounts.UpdateAttendeeProfile)
			r.Get("/registrations/{eventId}/ticket", events.Ticket)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", events.CreateEvent)
			r.Get("/", events.ListEvents)
			r.Get("/{id}", events.GetEvent)
			r.Put("/{id}", events.UpdateEvent)
			r.Delete("/{id}", events.DeleteEvent)
			r.Post("/{id}/register", events.Register)
		})
	})
}
