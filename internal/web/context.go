package web

import (
	"net/http"

	"github.com/JonMunkholm/sheetserve/internal/core"
	mw "github.com/JonMunkholm/sheetserve/internal/web/middleware"
)

// withClientIP stores the resolved client IP in the request context so
// service logs can carry it.
func withClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if addr, ok := mw.ClientAddr(r.RemoteAddr); ok {
			ip = addr.String()
		}
		ctx := core.ContextWithClientIP(r.Context(), ip)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
