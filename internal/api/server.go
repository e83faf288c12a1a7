package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftSync/internal/apperrors"
	"github.com/Kerhoff/GiftSync/internal/ratelimit"
	"github.com/Kerhoff/GiftSync/internal/service"
	"github.com/Kerhoff/GiftSync/internal/validation"
)

// Options configures optional parts of the server.
type Options struct {
	CORSOrigins []string
	// InviteLimit throttles invite creation per user; nil disables it.
	InviteLimit *ratelimit.Keyed
	// Webhook receives Telegram updates posted to /telegram/webhook; the
	// route is not mounted when nil.
	Webhook func(tgbotapi.Update)
}

// Server provides the JSON HTTP API.
type Server struct {
	svc       *service.Service
	logger    *logrus.Logger
	router    *chi.Mux
	validator *validation.Validator
	opts      Options
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, logger *logrus.Logger, opts Options) *Server {
	s := &Server{
		svc:       svc,
		logger:    logger,
		router:    chi.NewRouter(),
		validator: validation.New(),
		opts:      opts,
	}
	s.setupMiddleware()
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.observe)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(s.identify)
}

func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", s.svc.Metrics().Handler())

	if s.opts.Webhook != nil {
		s.router.Post("/telegram/webhook", s.handleTelegramWebhook)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignUp)
			r.Post("/signin", s.handleSignIn)
			r.With(s.requireUser).Post("/signout", s.handleSignOut)
			r.With(s.requireUser).Get("/me", s.handleMe)
		})

		// Public invite preview; accepting reports a login prompt itself.
		r.Get("/invites/{token}", s.handleInviteDetails)
		r.Post("/invites/{token}/accept", s.handleAcceptInvite)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)

			r.Get("/lists", s.handleGetLists)
			r.Post("/lists", s.handleCreateList)
			r.Patch("/lists/{id}", s.handleUpdateList)
			r.Delete("/lists/{id}", s.handleDeleteList)

			r.Get("/lists/{id}/items", s.handleGetItems)
			r.Post("/lists/{id}/items", s.handleCreateItem)
			r.Post("/items/complete", s.handleCompleteItems)
			r.Patch("/items/{id}", s.handleUpdateItem)
			r.Delete("/items/{id}", s.handleDeleteItem)
			r.Post("/items/{id}/links", s.handleAddLink)
			r.Delete("/links/{id}", s.handleDeleteLink)

			r.Post("/lists/{id}/invites", s.handleCreateInvite)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if ok, msg := s.decodeJSON(r, &update); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	s.opts.Webhook(update)
	w.WriteHeader(http.StatusOK)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondAppError writes err with the status of its code. Errors without a
// user-facing message are logged and reported as an internal error.
func (s *Server) respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		if appErr.Cause() != nil {
			s.logger.WithFields(logrus.Fields{
				"path":  r.URL.Path,
				"error": appErr.Cause(),
			}).Warn("Request failed")
		}
		s.respondError(w, appErr.Code.HTTPStatus(), appErr.Message)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"path":  r.URL.Path,
		"error": err,
	}).Error("Unexpected request error")
	s.respondError(w, http.StatusInternalServerError, "internal server error")
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil || r.Body == http.NoBody {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// pathID extracts the {id} path value as a UUID.
func pathID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing id in path")
	}
	return uuid.Parse(raw)
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

// observe records request metrics and logs each request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		s.svc.Metrics().ObserveHTTP(route, r.Method, status, elapsed)
		s.logger.WithFields(logrus.Fields{
			"method":     r.Method,
			"route":      route,
			"status":     status,
			"duration":   elapsed,
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("Handled request")
	})
}
