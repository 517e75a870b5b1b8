package server

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"
	"time"
)

// sessionCookieName holds the auth session key handed out after a successful sign-in
const sessionCookieName = "nag_session"

// generateRandomString creates a random base64url string
func generateRandomString(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *Server) SetSessionCookie(w http.ResponseWriter, r *http.Request, sessionKey string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionKey,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError sends the browser to path with a short, user-facing reason
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	http.Redirect(w, r, path+"?error="+url.QueryEscape(errorMsg), http.StatusSeeOther)
}
