package web

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/mzajc/stocktake/internal/auth"
	"github.com/mzajc/stocktake/internal/gate"
	"github.com/mzajc/stocktake/internal/store"
)

type webContextKey string

const webClaimsKey webContextKey = "webclaims"
const webTokenKey webContextKey = "webtoken"

// sessionFromRequest builds the gate session from the auth cookie. An
// invalid, expired or revoked token counts as unauthenticated, and the
// stale cookie is cleared.
func sessionFromRequest(w http.ResponseWriter, r *http.Request, secret string, db *sql.DB) (gate.Session, *auth.Claims, string) {
	cookie, err := r.Cookie("token")
	if err != nil || cookie.Value == "" {
		return gate.Session{}, nil, ""
	}

	claims, err := auth.ValidateToken(secret, cookie.Value)
	if err != nil {
		clearAuthCookie(w)
		return gate.Session{}, nil, ""
	}

	if claims.ID != "" {
		revoked, err := store.IsTokenRevoked(r.Context(), db, claims.ID)
		if err != nil {
			slog.Error("failed to check token revocation", "error", err)
			clearAuthCookie(w)
			return gate.Session{}, nil, ""
		}
		if revoked {
			clearAuthCookie(w)
			return gate.Session{}, nil, ""
		}
	}

	return gate.Session{Authenticated: true, Role: claims.Role}, claims, cookie.Value
}

// GateMiddleware runs every page request through the gate: public pages
// pass, unauthenticated requests go to the login page, and requests for
// the wrong role's pages go to the requester's home page.
func GateMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, claims, token := sessionFromRequest(w, r, secret, db)

			switch decision := gate.Evaluate(r.URL.Path, session); decision.Action {
			case gate.RedirectLogin:
				http.Redirect(w, r, decision.Target, http.StatusSeeOther)
				return
			case gate.RedirectHome:
				http.Redirect(w, r, decision.Target, http.StatusSeeOther)
				return
			}

			if claims != nil {
				ctx := context.WithValue(r.Context(), webClaimsKey, claims)
				ctx = context.WithValue(ctx, webTokenKey, token)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clearAuthCookie clears the authentication cookie with consistent attributes.
func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetWebClaims retrieves the JWT claims from web context.
func GetWebClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(webClaimsKey).(*auth.Claims)
	return claims
}

// GetWebToken retrieves the raw JWT token from web context.
func GetWebToken(ctx context.Context) string {
	token, _ := ctx.Value(webTokenKey).(string)
	return token
}
