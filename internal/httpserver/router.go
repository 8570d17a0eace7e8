package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/notepid/club_companion/internal/account"
	"github.com/notepid/club_companion/internal/avatar"
	"github.com/notepid/club_companion/internal/club"
	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/message"
	"github.com/notepid/club_companion/internal/security"
)

// Server holds the dependencies of the reference REST API.
type Server struct {
	accounts *account.Repo
	clubs    *club.Repo
	messages *message.Repo
	avatars  *avatar.Store
	tokens   *security.TokenService
	metrics  *Metrics
	validate *validator.Validate
	log      zerolog.Logger

	corsOrigins    []string
	requestTimeout time.Duration
}

// Options configures New.
type Options struct {
	Accounts    *account.Repo
	Clubs       *club.Repo
	Messages    *message.Repo
	Avatars     *avatar.Store
	Tokens      *security.TokenService
	Log         zerolog.Logger
	CORSOrigins []string
}

// New creates a server. Call Router to obtain the http.Handler.
func New(opts Options) *Server {
	return &Server{
		accounts:       opts.Accounts,
		clubs:          opts.Clubs,
		messages:       opts.Messages,
		avatars:        opts.Avatars,
		tokens:         opts.Tokens,
		metrics:        NewMetrics(),
		validate:       validator.New(),
		log:            opts.Log.With().Str("component", "http").Logger(),
		corsOrigins:    opts.CORSOrigins,
		requestTimeout: 60 * time.Second,
	}
}

// Router wires routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(s.metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.Ack{Message: "Welcome to the Club Companion API"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Handle("/metrics", s.metrics.Handler())
	r.Handle(avatar.URLPrefix+"/*", http.StripPrefix(avatar.URLPrefix+"/", http.FileServer(http.Dir(s.avatars.Dir()))))

	r.Route("/api", func(r chi.Router) {
		r.Post("/login/{role}", s.handleLogin)
		r.Post("/register/{role}", s.handleRegister)

		r.Get("/clubs", s.handleListClubs)
		r.Get("/clubs/{clubID}", s.handleGetClub)
		r.Get("/social-media/club/{clubID}", s.handleListSocialLinks)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.With(s.requireSelf("")).Get("/profile/{role}/{id}", s.handleGetProfile)
			r.With(s.requireSelf("")).Post("/profile/{role}/{id}", s.handleUpdateProfile)

			r.Route("/student/{id}", func(r chi.Router) {
				r.Use(s.requireSelf(domain.RoleStudent))
				r.Get("/saved-clubs", s.handleSavedClubs)
				r.Post("/save-club/{clubID}", s.handleSaveClub)
				r.Delete("/unsave-club/{clubID}", s.handleUnsaveClub)
				r.Get("/is-club-saved/{clubID}", s.handleIsClubSaved)
			})

			r.With(s.requireSelf(domain.RoleClub)).Get("/club/{id}/members", s.handleMembers)

			r.Route("/messages/{role}/{id}", func(r chi.Router) {
				r.Use(s.requireSelf(""))
				r.Get("/", s.handleListMessages)
				r.Get("/threads", s.handleThreads)
				r.Get("/conversation/{otherType}/{otherID}", s.handleConversation)
				r.Post("/send", s.handleSend)
				r.Post("/read/{messageID}", s.handleMarkRead)
			})

			r.Post("/social-media", s.handleAddSocialLink)
			r.Post("/social-media/", s.handleAddSocialLink)
			r.Put("/social-media/{linkID}", s.handleUpdateSocialLink)
			r.Delete("/social-media/{linkID}", s.handleDeleteSocialLink)
		})
	})

	return r
}

// requestLogger logs one line per request through zerolog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeDetail sends the {"detail": ...} error body.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, domain.ErrorResponse{Detail: detail})
}

// fail maps a repository error to a status code. detail overrides the
// default text for 4xx responses.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, detail string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, avatar.ErrDataURI), errors.Is(err, avatar.ErrNotImage), errors.Is(err, avatar.ErrTooLarge):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeDetail(w, status, "Internal server error")
		return
	}
	if detail == "" {
		detail = err.Error()
	}
	writeDetail(w, status, detail)
}

// decode reads a JSON body into v and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid JSON body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, validationDetail(err))
		return false
	}
	return true
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation failed"
	}
	e := verrs[0]
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "url":
		return e.Field() + " must be a valid URL"
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}

func pathInt(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func pathRole(r *http.Request, name string) (domain.Role, bool) {
	role, err := domain.ParseRole(chi.URLParam(r, name))
	return role, err == nil
}
