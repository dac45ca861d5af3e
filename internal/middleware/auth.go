package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ProfileEnsurer upserts the local profile row for an authenticated
// principal. Identity issuance itself belongs to the external identity
// service; this backend only validates its tokens.
type ProfileEnsurer interface {
	EnsureProfile(userID int64, username string) error
}

type AuthMiddleware struct {
	secret   []byte
	profiles ProfileEnsurer
}

func NewAuthMiddleware(secret string, profiles ProfileEnsurer) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret), profiles: profiles}
}

type contextKey string

const (
	UserIDKey   = contextKey("userID")
	UsernameKey = contextKey("username")
)

func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}

func UsernameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(UsernameKey).(string)
	return name, ok
}

func (m *AuthMiddleware) parseToken(token string) (int64, string, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, "", fmt.Errorf("invalid token: %w", err)
	}

	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, "", fmt.Errorf("missing subject claim")
	}

	username, _ := claims["username"].(string)

	return int64(sub), username, nil
}

// ValidateToken requires a valid bearer token and puts the user id and
// username into the request context.
func (m *AuthMiddleware) ValidateToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "missing or malformed authorization header", http.StatusUnauthorized)
			return
		}

		userID, username, err := m.parseToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if m.profiles != nil {
			if err := m.profiles.EnsureProfile(userID, username); err != nil {
				http.Error(w, "failed to resolve profile", http.StatusInternalServerError)
				return
			}
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = context.WithValue(ctx, UsernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalToken resolves the viewer when a token is present but lets
// anonymous requests through. Used on public endpoints that change
// shape for an authenticated viewer.
func (m *AuthMiddleware) OptionalToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			if userID, username, err := m.parseToken(strings.TrimPrefix(authHeader, "Bearer ")); err == nil {
				ctx := context.WithValue(r.Context(), UserIDKey, userID)
				ctx = context.WithValue(ctx, UsernameKey, username)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}
