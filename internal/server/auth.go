package server

import (
	"net/http"
	"strings"
)

const guestHeader = "X-Guest-ID"

// guestFromRequest returns the caller's guest id from the X-Guest-ID header
// or a bearer token. The id is the only credential a guest holds.
func guestFromRequest(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(guestHeader)); id != "" {
		return id
	}
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}
