package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type ctxKey int

const ctxKeyViewID ctxKey = iota

// viewMiddleware rejects requests for views that are not open.
func viewMiddleware(views *Views) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "viewID")
			if _, err := views.get(id); err != nil {
				writeError(w, http.StatusNotFound, "view not found")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyViewID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func viewIDFrom(r *http.Request) string {
	return r.Context().Value(ctxKeyViewID).(string)
}
