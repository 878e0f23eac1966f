package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const userIDKey contextKey = "userID"

const (
	cookieName    = "user_id"
	cookieExpires = 365 * 24 * time.Hour
)

// Auth resolves the identity cookie to a user id. A missing, expired or
// tampered cookie resolves to anonymous; it never fails the request.
type Auth struct {
	secret []byte
	logger *zap.Logger
}

func NewAuthMiddleware(secret string, logger *zap.Logger) *Auth {
	return &Auth{
		secret: []byte(secret),
		logger: logger,
	}
}

// Identity puts the resolved user id into the request context when the
// cookie carries a valid signature. Everything else proceeds as anonymous.
func (a *Auth) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(cookieName)
		if err == nil {
			if userID, valid := a.parseCookie(cookie.Value); valid {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			} else {
				a.logger.Debug("Invalid identity cookie signature, treating as anonymous")
			}
		}

		next.ServeHTTP(w, r)
	})
}

// EnsureIdentity mints a fresh signed identity for anonymous requesters.
// Write endpoints hang off this so every owner-scoped mutation carries one.
func (a *Auth) EnsureIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		userID := uuid.New().String()
		a.setUserCookie(w, userID)

		r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) setUserCookie(w http.ResponseWriter, userID string) {
	cookie := &http.Cookie{
		Name:     cookieName,
		Value:    a.signUserID(userID),
		Path:     "/",
		Expires:  time.Now().Add(cookieExpires),
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
	}

	http.SetCookie(w, cookie)
}

func (a *Auth) signUserID(userID string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(userID))
	signature := mac.Sum(nil)
	return userID + "." + hex.EncodeToString(signature)
}

func (a *Auth) parseCookie(cookieValue string) (string, bool) {
	parts := strings.Split(cookieValue, ".")
	if len(parts) != 2 {
		return "", false
	}

	userID := parts[0]
	if userID == "" {
		return "", false
	}

	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(userID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(parts[1]), []byte(expected)) {
		return "", false
	}

	return userID, true
}

// GetUserIDFromContext returns the resolved user id, or false for anonymous.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}
