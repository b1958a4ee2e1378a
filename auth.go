package main

// auth.go issues and checks the dashboard's bearer tokens

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type Claims struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type Session struct {
	Token     string
	Email     string
	ExpiresAt time.Time
}

type AuthService struct {
	store  *Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(store *Store, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Authenticate checks email and password and issues a token. Both an unknown
// email and a wrong password return ErrInvalidCredentials; the cause is only logged.
func (a *AuthService) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	log := loggerFrom(ctx)

	user, err := a.store.FindUserByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Info("login rejected: email not found", "email", email)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !checkPassword(user.Password, password) {
		log.Info("login rejected: wrong password", "email", email)
		return nil, ErrInvalidCredentials
	}

	return a.issueToken(user)
}

func (a *AuthService) issueToken(user *User) (*Session, error) {
	now := a.now()
	expiresAt := now.Add(a.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: tokenString, Email: user.Email, ExpiresAt: expiresAt}, nil
}

// ParseToken verifies signature and expiry.
func (a *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

const claimsKey = ctxKey("claims")

func claimsFrom(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// RequireAuth rejects requests without a valid "Authorization: Bearer" token.
func (a *AuthService) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := a.ParseToken(strings.TrimSpace(tokenString))
		if err != nil {
			loggerFrom(r.Context()).Info("token rejected", "error", err)
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func hashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func checkPassword(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
