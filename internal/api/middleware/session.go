package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/curator/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type contextKey string

const sessionContextKey contextKey = "session"

// SessionLookup resolves a session id to a live session.
type SessionLookup interface {
	Get(id uuid.UUID) (*service.Session, error)
}

func SessionFromContext(ctx context.Context) *service.Session {
	s, _ := ctx.Value(sessionContextKey).(*service.Session)
	return s
}

// SessionCtx loads the session named by the {id} route parameter into the
// request context. Unknown or malformed ids never reach the handler.
func SessionCtx(sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid session id")
				return
			}

			s, err := sessions.Get(id)
			if err != nil {
				if errors.Is(err, service.ErrSessionNotFound) {
					writeError(w, http.StatusNotFound, err.Error())
					return
				}
				writeError(w, http.StatusInternalServerError, "failed to load session")
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
