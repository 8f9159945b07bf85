package middlewares

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/formsend/formsend/app"
	"github.com/formsend/formsend/httpx"
	"github.com/formsend/formsend/model"
	"github.com/go-chi/jwtauth/v5"
)

type principalKey struct{}

// Authenticated verifies the bearer token and resolves its subject to a live
// user row, which downstream handlers read back with Principal. A valid
// token whose subject no longer exists is still unauthorized.
func Authenticated(app app.App) func(http.Handler) http.Handler {
	verify := jwtauth.Verifier(app.Tokens.JWTAuth())

	return func(next http.Handler) http.Handler {
		return verify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				httpx.Error(w, r, http.StatusUnauthorized, "auth.token", "Not authorized, token failed")
				return
			}

			id, ok := httpx.UserID(claims)
			if !ok {
				httpx.Error(w, r, http.StatusUnauthorized, "auth.token.subject", "Not authorized, token failed")
				return
			}

			user := model.User{}
			err = app.QueryRowContext(r.Context(), `
				SELECT id, username, email FROM user WHERE id = ?`, id).
				Scan(&user.ID, &user.Username, &user.Email)
			if errors.Is(err, sql.ErrNoRows) {
				httpx.Error(w, r, http.StatusUnauthorized, "auth.principal", "Not authorized, user not found")
				return
			}
			if err != nil {
				httpx.Internal(w, r, "auth.principal.lookup", err)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		}))
	}
}

// Principal returns the authenticated user attached by Authenticated.
func Principal(r *http.Request) model.User {
	user, _ := r.Context().Value(principalKey{}).(model.User)
	return user
}

// OwnerAllowed is the single ownership check used before every resource
// access. allowPublic lets a public resource through for non-owners; the
// caller decides whether a failure reads as Forbidden or NotFound.
func OwnerAllowed(principal model.User, ownerID int64, isPublic, allowPublic bool) bool {
	if principal.ID == ownerID {
		return true
	}
	return allowPublic && isPublic
}
