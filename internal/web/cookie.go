package web

import (
	"net/http"

	"github.com/google/uuid"
)

const sessionCookie = "charadex_session"

// sessionID returns the id of the client session. The cookie is nil unless a
// new session was started, in which case it has to be sent to the client.
func sessionID(r *http.Request) (string, *http.Cookie) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value, nil
		}
	}
	id := uuid.NewString()
	return id, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
