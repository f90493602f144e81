package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthConfig configures identity token verification. Tokens are HS256 JWTs
// whose subject is the user id.
type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

type userKey struct{}

func withUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

func userIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func authenticateJWT(token string, cfg AuthConfig) (uuid.UUID, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return uuid.Nil, errors.New("jwt secret not configured")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	if !parsed.Valid {
		return uuid.Nil, errors.New("invalid token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, errors.New("subject must be a user id")
	}
	return userID, nil
}

// IssueToken signs a token for userID. A zero ttl issues a token that
// does not expire.
func IssueToken(cfg AuthConfig, userID uuid.UUID, ttl time.Duration) (string, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  userID.String(),
		Issuer:   cfg.Issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func newAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, r, errUnauthorized("authentication required"))
				return
			}
			userID, err := authenticateJWT(token, cfg)
			if err != nil {
				writeError(w, r, errUnauthorized("invalid credentials"))
				return
			}
			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
		})
	}
}
