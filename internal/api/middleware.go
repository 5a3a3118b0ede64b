/**
 * @description
 * This file contains custom middleware for the HTTP router. The session
 * middleware validates Supabase-issued JWTs and stores the authenticated
 * user's id in the request context.
 *
 * When the backend auth service is not configured the middleware passes
 * requests through unauthenticated rather than failing hard; protected
 * handlers then respond 401 because no identity is present.
 */
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserIDContextKey is a custom type for the context key to avoid collisions.
type UserIDContextKey string

const userIDKey UserIDContextKey = "supabaseUserID"

// Cookie names used for the Supabase session. The same names the frontend
// client library writes, so both can share a session.
const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"
)

// SessionMiddleware returns a middleware that validates Supabase session
// JWTs (HS256, signed with the project's JWT secret). The token is taken
// from the Authorization header or, failing that, the session cookie. An
// empty jwtSecret disables validation entirely.
func SessionMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if jwtSecret == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString := bearerToken(r)
			if tokenString == "" {
				if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
					tokenString = cookie.Value
				}
			}
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithLeeway(30*time.Second))
			if err != nil || !token.Valid {
				// An invalid or expired token is treated the same as no
				// session at all.
				next.ServeHTTP(w, r)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			userID, ok := claims["sub"].(string)
			if !ok || userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return ""
	}
	return tokenString
}

// UserFromContext retrieves the authenticated user's id from the request
// context. Handlers should use this to get the caller's identity.
func UserFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}
