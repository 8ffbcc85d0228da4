package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clickmarket/clickmarket-backend/api/responses"
	pkgauth "github.com/clickmarket/clickmarket-backend/pkg/auth"
	"github.com/clickmarket/clickmarket-backend/pkg/config"
	pkgerrors "github.com/clickmarket/clickmarket-backend/pkg/errors"
	"github.com/clickmarket/clickmarket-backend/pkg/logger"
)

const (
	sessionHeader    = "X-Session-ID"
	sessionCookie    = "cartSessionId"
	sessionCookieAge = 30 * 24 * time.Hour
)

// Session resolves the cart owner for routes that serve both guests and
// logged-in users. A valid bearer token wins; otherwise the guest session id
// comes from the X-Session-ID header, then the cartSessionId cookie, and is
// minted fresh when neither is present. The resolved session id is always
// echoed back so clients can persist it.
//
// A bearer token that is present but malformed or expired is still rejected:
// silently downgrading an authenticated call to a guest cart would strand
// the user's items.
func Session(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				claims, err := pkgauth.ParseAccessToken(cfg, token)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				ctx := seedClaims(r.Context(), logg, claims)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			sessionID := guestSessionID(r)
			minted := false
			if sessionID == "" {
				sessionID = uuid.NewString()
				minted = true
			}

			w.Header().Set(sessionHeader, sessionID)
			if minted {
				http.SetCookie(w, &http.Cookie{
					Name:     sessionCookie,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(sessionCookieAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func guestSessionID(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get(sessionHeader)); header != "" {
		return header
	}
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
