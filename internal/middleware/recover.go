package middleware

import (
	"log/slog"
	"net/http"
)

// Recover converts panics into 500 responses so one bad request cannot
// take the process down.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec != nil {
				slog.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				http.Error(w, "Internal server error!", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
