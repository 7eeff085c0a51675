package auth

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie carrying the opaque session token
const SessionCookieName = "sessionToken"

// CookieConfig holds cookie configuration settings
type CookieConfig struct {
	Domain string // empty = current host only
	Secure bool
}

// SetSessionCookie stores the session token in an HttpOnly, SameSite=Strict cookie
// that lives exactly as long as the token.
func SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time, ttl time.Duration, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.Domain,
		Expires:  expiresAt,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(w http.ResponseWriter, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetSessionCookie returns the session token sent by the client
func GetSessionCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}
