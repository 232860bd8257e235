// Package session turns request credentials into the caller's session.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"quill/internal/cache"
	"quill/internal/middleware"
	"quill/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// Headers is the request header set as returned by fiber's GetReqHeaders.
type Headers map[string][]string

// Get returns the first value of a header, matching the name case-insensitively.
func (h Headers) Get(name string) string {
	for k, v := range h {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

// Session is the resolved caller.
type Session struct {
	Identity      models.Identity
	EmailVerified bool
}

// Resolver maps request headers to a session. A nil session with a nil error
// means the request carries no usable credentials.
type Resolver interface {
	Resolve(ctx context.Context, headers Headers) (*Session, error)
}

// UserLookup loads the account behind a token subject.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Options configures a JWTResolver.
type Options struct {
	Secret    string
	Issuer    string
	Audience  string
	CacheSize int
	CacheTTL  time.Duration
}

// JWTResolver validates HMAC bearer tokens and loads the subject's account.
type JWTResolver struct {
	opts  Options
	users UserLookup
	redis *redis.Client
	cache *lru.LRU[string, *models.User]
}

// NewJWTResolver builds a resolver. rdb may be nil, in which case revocation is not checked.
func NewJWTResolver(opts Options, users UserLookup, rdb *redis.Client) *JWTResolver {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1024
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	return &JWTResolver{
		opts:  opts,
		users: users,
		redis: rdb,
		cache: lru.NewLRU[string, *models.User](opts.CacheSize, nil, opts.CacheTTL),
	}
}

// Resolve implements Resolver.
func (r *JWTResolver) Resolve(ctx context.Context, headers Headers) (*Session, error) {
	tokenString := bearerToken(headers.Get("Authorization"))
	if tokenString == "" {
		return nil, nil
	}

	claims, err := r.parse(tokenString)
	if err != nil {
		middleware.Logger.DebugContext(ctx, "rejected bearer token", slog.String("error", err.Error()))
		return nil, nil
	}

	if claims.ID != "" && r.redis != nil {
		revoked, err := r.redis.Exists(ctx, cache.RevokedKey(claims.ID)).Result()
		if err != nil {
			middleware.Logger.WarnContext(ctx, "revocation check failed", slog.String("error", err.Error()))
		} else if revoked > 0 {
			return nil, nil
		}
	}

	user, err := r.loadUser(ctx, claims.Subject)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &Session{
		Identity: models.Identity{
			ID:     user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Role:   user.Role,
			Status: user.Status,
		},
		EmailVerified: user.EmailVerified,
	}, nil
}

// Revoke marks a token id as revoked for ttl, normally the token's remaining lifetime.
func (r *JWTResolver) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if r.redis == nil {
		return errors.New("revocation requires redis")
	}
	return r.redis.Set(ctx, cache.RevokedKey(jti), 1, ttl).Err()
}

// Forget drops a cached account so the next request reloads it.
func (r *JWTResolver) Forget(userID string) {
	r.cache.Remove(userID)
}

func (r *JWTResolver) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(r.opts.Secret), nil
	},
		jwt.WithIssuer(r.opts.Issuer),
		jwt.WithAudience(r.opts.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	return claims, nil
}

func (r *JWTResolver) loadUser(ctx context.Context, id string) (*models.User, error) {
	if u, ok := r.cache.Get(id); ok {
		return u, nil
	}
	u, err := r.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Add(id, u)
	return u, nil
}

func bearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// Issue signs a token for userID. Used by the seed tool and tests; sign-in itself
// belongs to the identity provider.
func Issue(opts Options, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    opts.Issuer,
		Audience:  jwt.ClaimStrings{opts.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(opts.Secret))
}
