package auth

import (
	"log"
	"net/http"
	"net/url"
	"strings"
)

// CookieName is the cookie carrying the session token for browser requests.
const CookieName = "swpm_session"

// Middleware attaches the session found in the Authorization header or the
// session cookie. Missing or invalid tokens leave the request anonymous.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token != "" {
				session, err := ParseToken(secret, token)
				if err == nil {
					r = r.WithContext(WithSession(r.Context(), session))
				} else {
					log.Printf("[auth] ignoring invalid session token: %v", err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCapability rejects requests whose session lacks capability.
func RequireCapability(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsLoggedIn(r.Context()) {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			if !HasCapability(r.Context(), capability) {
				http.Error(w, "insufficient permissions", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RejectCrossSite refuses state-changing requests a browser reports as
// cross-site, or whose Origin names a different host.
func RejectCrossSite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if crossSite(r) {
			log.Printf("[auth] rejecting cross-site %s %s (origin %q)", r.Method, r.URL.Path, r.Header.Get("Origin"))
			http.Error(w, "cross-site request rejected", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func crossSite(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Site") == "cross-site" {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return true
	}
	return !strings.EqualFold(u.Host, r.Host)
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
