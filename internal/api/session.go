package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	sessionCookieName = "session_id"
	defaultSessionTTL = 24 * time.Hour
)

// sessionID returns the request's session id, minting a new one (and
// setting the cookie) when the cookie is missing or malformed.
func sessionID(w http.ResponseWriter, r *http.Request, ttl time.Duration) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	setCookie(w, id, ttl)
	return id
}

// existingSessionID returns the session id from the cookie, if any.
func existingSessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func setCookie(w http.ResponseWriter, id string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

func clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
