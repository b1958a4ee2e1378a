package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestAuth(t *testing.T) (*AuthService, *Store) {
	t.Helper()
	store := newTestStore(t)
	require.NoError(t, store.SeedAdmin(context.Background(), "known@x.com", "rightpass"))
	return NewAuthService(store, testSecret, time.Hour), store
}

func TestAuthenticate(t *testing.T) {
	auth, store := newTestAuth(t)
	ctx := context.Background()

	user, err := store.FindUserByEmail(ctx, "known@x.com")
	require.NoError(t, err)

	t.Run("valid credentials issue a decodable token", func(t *testing.T) {
		session, err := auth.Authenticate(ctx, "known@x.com", "rightpass")
		require.NoError(t, err)
		assert.Equal(t, "known@x.com", session.Email)

		claims := jwt.MapClaims{}
		_, err = jwt.ParseWithClaims(session.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(testSecret), nil
		})
		require.NoError(t, err)
		assert.EqualValues(t, user.ID, claims["userId"])
		assert.Equal(t, "known@x.com", claims["email"])

		exp, err := claims.GetExpirationTime()
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), exp.Time, 5*time.Second)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, "known@x.com", "wrongpass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := auth.Authenticate(ctx, "unknown@x.com", "rightpass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestParseToken(t *testing.T) {
	auth, _ := newTestAuth(t)
	ctx := context.Background()

	session, err := auth.Authenticate(ctx, "known@x.com", "rightpass")
	require.NoError(t, err)

	claims, err := auth.ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "known@x.com", claims.Email)
	assert.NotZero(t, claims.UserID)

	t.Run("expired", func(t *testing.T) {
		late := NewAuthService(auth.store, testSecret, time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.ParseToken(session.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewAuthService(auth.store, "another-secret", time.Hour)
		_, err := other.ParseToken(session.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"userId": 1,
			"email":  "known@x.com",
			"exp":    time.Now().Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = auth.ParseToken(unsigned)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no expiry", func(t *testing.T) {
		forever, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"userId": 1,
			"email":  "known@x.com",
		}).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = auth.ParseToken(forever)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRequireAuth(t *testing.T) {
	auth, _ := newTestAuth(t)
	session, err := auth.Authenticate(context.Background(), "known@x.com", "rightpass")
	require.NoError(t, err)

	var seen *Claims
	h := auth.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = claimsFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid token", "Bearer " + session.Token, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/about", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	require.NotNil(t, seen)
	assert.Equal(t, "known@x.com", seen.Email)
}
