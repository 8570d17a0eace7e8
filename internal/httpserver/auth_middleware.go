package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/notepid/club_companion/internal/domain"
)

type contextKey string

const actorContextKey contextKey = "actor"

// WithActor returns a new context carrying the authenticated actor.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// CurrentActor extracts the authenticated actor from the request, if any.
func CurrentActor(r *http.Request) (domain.Actor, bool) {
	a, ok := r.Context().Value(actorContextKey).(domain.Actor)
	return a, ok
}

// authenticate validates the Bearer token and attaches the actor to the context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		tokenStr := strings.TrimSpace(authHeader[len("Bearer "):])

		actor, err := s.tokens.Parse(tokenStr)
		if err != nil {
			s.log.Debug().Err(err).Msg("rejected token")
			writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// requireSelf rejects requests whose {id} (and {role}, unless fixed is set)
// path parameters name someone other than the authenticated actor.
func (s *Server) requireSelf(fixed domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := fixed
			if role == "" {
				var ok bool
				if role, ok = pathRole(r, "role"); !ok {
					writeDetail(w, http.StatusNotFound, "Unknown role "+chi.URLParam(r, "role"))
					return
				}
			}
			id, ok := pathInt(r, "id")
			if !ok {
				writeDetail(w, http.StatusUnprocessableEntity, "Invalid id")
				return
			}

			actor, ok := CurrentActor(r)
			if !ok {
				writeDetail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			if actor.ID != id || actor.Role != role {
				writeDetail(w, http.StatusForbidden, "Not authorized for this account")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
