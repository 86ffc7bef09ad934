package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdcraft/payments/internal/auth"
	"github.com/crowdcraft/payments/internal/domain"
	"github.com/crowdcraft/payments/internal/testutil/mocks"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, claims domain.TokenClaims, secret []byte) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func validClaims() domain.TokenClaims {
	return domain.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "worker-7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Username: "worker-seven",
		IsClient: false,
	}
}

func TestAuthenticatorMiddleware(t *testing.T) {
	t.Run("injects the actor on valid token", func(t *testing.T) {
		authenticator := NewAuthenticator(testSecret, mocks.NewMockLogger())

		var gotActor domain.Actor
		var ok bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotActor, ok = auth.ActorFrom(r.Context())
		})

		req := httptest.NewRequest(http.MethodGet, "/payments/stats", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(), testSecret))
		rec := httptest.NewRecorder()

		authenticator.Middleware(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.True(t, ok)
		assert.Equal(t, "worker-7", gotActor.ID)
		assert.Equal(t, "worker-seven", gotActor.Username)
		assert.False(t, gotActor.IsClient)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		authenticator := NewAuthenticator(testSecret, mocks.NewMockLogger())
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		})

		req := httptest.NewRequest(http.MethodGet, "/payments/stats", nil)
		rec := httptest.NewRecorder()

		authenticator.Middleware(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects token signed with another key", func(t *testing.T) {
		authenticator := NewAuthenticator(testSecret, mocks.NewMockLogger())
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		})

		req := httptest.NewRequest(http.MethodGet, "/payments/stats", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(), []byte("wrong-secret")))
		rec := httptest.NewRecorder()

		authenticator.Middleware(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		authenticator := NewAuthenticator(testSecret, mocks.NewMockLogger())
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be reached")
		})

		claims := validClaims()
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

		req := httptest.NewRequest(http.MethodGet, "/payments/stats", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, claims, testSecret))
		rec := httptest.NewRecorder()

		authenticator.Middleware(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
