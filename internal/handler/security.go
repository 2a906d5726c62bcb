package handler

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/xenking/local-market/internal/domain/access"
	"github.com/xenking/local-market/internal/domain/apperr"
	"github.com/xenking/local-market/internal/domain/auth"
	"github.com/xenking/local-market/internal/domain/user"
)

// APIKeyHeader carries a raw API key.
const APIKeyHeader = "api_key"

const actorKey = "market.actor"

var errUnauthorized = apperr.Unauthorized("unauthorized")

// Authenticator resolves the caller of a request to an Actor. Requests may
// present an API key, hashed with HMAC-SHA256 under a server-side pepper,
// or an HS256 bearer token whose subject is the user ID. Requests with
// neither act anonymously.
type Authenticator struct {
	apikeys   auth.Repository
	users     user.Repository
	pepper    []byte
	jwtSecret []byte
}

// NewAuthenticator creates an Authenticator. An empty jwtSecret disables
// bearer tokens.
func NewAuthenticator(apikeys auth.Repository, users user.Repository, pepper, jwtSecret []byte) *Authenticator {
	return &Authenticator{
		apikeys:   apikeys,
		users:     users,
		pepper:    pepper,
		jwtSecret: jwtSecret,
	}
}

// Resolve authenticates r.
func (a *Authenticator) Resolve(ctx context.Context, r *http.Request) (access.Actor, error) {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return a.fromAPIKey(ctx, key)
	}
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			return access.Anonymous, errUnauthorized
		}
		return a.fromToken(ctx, strings.TrimSpace(token))
	}
	return access.Anonymous, nil
}

func (a *Authenticator) fromAPIKey(ctx context.Context, key string) (access.Actor, error) {
	hexHash := auth.HashKey(a.pepper, key)
	info, err := a.apikeys.FindByHash(ctx, hexHash)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownKey) {
			return access.Anonymous, errUnauthorized
		}
		return access.Anonymous, errors.Wrap(err, "find api key")
	}

	// The stored hash must match what we computed even if the lookup
	// returned a row.
	computed, _ := hex.DecodeString(hexHash)
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(computed, stored) != 1 {
		return access.Anonymous, errUnauthorized
	}
	return a.actor(ctx, info.UserID)
}

func (a *Authenticator) fromToken(ctx context.Context, raw string) (access.Actor, error) {
	if len(a.jwtSecret) == 0 {
		return access.Anonymous, errUnauthorized
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || claims.Subject == "" {
		return access.Anonymous, errUnauthorized
	}
	return a.actor(ctx, claims.Subject)
}

func (a *Authenticator) actor(ctx context.Context, userID string) (access.Actor, error) {
	u, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return access.Anonymous, errUnauthorized
		}
		return access.Anonymous, errors.Wrap(err, "load user")
	}
	return u.Actor(), nil
}

// authenticate stores the resolved actor on the gin context.
func (h *Handler) authenticate(c *gin.Context) {
	actor, err := h.auth.Resolve(c.Request.Context(), c.Request)
	if err != nil {
		h.fail(c, err)
		c.Abort()
		return
	}
	c.Set(actorKey, actor)
	c.Next()
}

func actorFrom(c *gin.Context) access.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(access.Actor); ok {
			return actor
		}
	}
	return access.Anonymous
}
