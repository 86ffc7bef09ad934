package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/crowdcraft/payments/internal/auth"
	"github.com/crowdcraft/payments/internal/domain"
	"github.com/crowdcraft/payments/internal/domain/ports"
)

// Authenticator validates bearer tokens and injects the actor into the
// request context
type Authenticator struct {
	secret []byte
	logger ports.Logger
}

// NewAuthenticator creates an authenticator verifying HS256 tokens signed
// with secret
func NewAuthenticator(secret []byte, logger ports.Logger) *Authenticator {
	return &Authenticator{secret: secret, logger: logger}
}

// Middleware rejects requests without a valid bearer token. On success the
// request context carries the actor and a request id.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, "missing bearer token")
			return
		}

		claims := &domain.TokenClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
			func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return a.secret, nil
			})
		if err != nil || !token.Valid {
			a.logger.Warn("rejected invalid token", ports.String("path", r.URL.Path))
			unauthorized(w, "invalid token")
			return
		}

		ctx := auth.WithActor(r.Context(), claims.Actor())
		ctx = context.WithValue(ctx, auth.RequestIDKey, uuid.New().String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    string(domain.ErrorCodeAuthAccessDenied),
			"message": message,
		},
	})
}
