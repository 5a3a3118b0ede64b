/**
 * @description
 * HTTP handler for the auth callback: after email confirmation or an OAuth
 * redirect, the authorization code in the query string is exchanged for a
 * session, the session tokens are set as cookies and the user is redirected
 * to the requested path.
 */
package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/chiwonkim111/vibecoding-backend/pkg/supabaseauth"
)

// AuthHandlers handles session establishment against the Supabase auth API.
type AuthHandlers struct {
	auth *supabaseauth.Client
}

// NewAuthHandlers creates auth handlers. A nil client means the backend
// auth service is not configured; the callback then redirects straight to
// the error page.
func NewAuthHandlers(auth *supabaseauth.Client) *AuthHandlers {
	return &AuthHandlers{auth: auth}
}

// CallbackHandler handles GET /api/auth/callback?code&next.
func (h *AuthHandlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	next := r.URL.Query().Get("next")
	if next == "" || !strings.HasPrefix(next, "/") {
		// Only same-site paths are valid redirect targets.
		next = "/"
	}

	if code != "" && h.auth != nil {
		session, err := h.auth.ExchangeCodeForSession(r.Context(), code)
		if err == nil {
			setSessionCookies(w, session)
			http.Redirect(w, r, next, http.StatusSeeOther)
			return
		}
		log.Printf("level=warn component=api op=auth_callback msg=\"code exchange failed\" err=%v", err)
	}

	http.Redirect(w, r, "/auth/auth-code-error", http.StatusSeeOther)
}

func setSessionCookies(w http.ResponseWriter, session *supabaseauth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    session.AccessToken,
		Path:     "/",
		MaxAge:   session.ExpiresIn,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    session.RefreshToken,
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 30,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
