package server

import (
	"context"
	"net/http"
)

type ctxKey int

const ctxKeyGuest ctxKey = iota

func requireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := guestFromRequest(r)
		if id == "" {
			writeError(w, http.StatusUnauthorized, "missing guest id")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyGuest, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func guestID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeyGuest).(string)
	return id
}
