package cache

import (
	"context"
	"time"

	"github.com/arturoeanton/chatcpt-gateway/internal/domain"
	"github.com/arturoeanton/chatcpt-gateway/internal/port"
	"github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"
)

// CachedIdentity wraps an IdentityProvider and memoizes successful token
// resolutions for a short TTL, never past the token's own expiry.
// Failures are never cached.
type CachedIdentity struct {
	port.IdentityProvider
	cache *gocache.Cache
	ttl   time.Duration
}

// NewCachedIdentity returns next unchanged when ttl is not positive.
func NewCachedIdentity(next port.IdentityProvider, ttl time.Duration) port.IdentityProvider {
	if ttl <= 0 {
		return next
	}
	return &CachedIdentity{
		IdentityProvider: next,
		cache:            gocache.New(ttl, 2*ttl),
		ttl:              ttl,
	}
}

// ResolveUser serves a cached identity when one is still fresh.
func (c *CachedIdentity) ResolveUser(ctx context.Context, token string) (*domain.UserContext, error) {
	if x, found := c.cache.Get(token); found {
		uc := *x.(*domain.UserContext)
		return &uc, nil
	}

	uc, err := c.IdentityProvider.ResolveUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if d := c.entryTTL(token); d > 0 {
		stored := *uc
		c.cache.Set(token, &stored, d)
	}
	return uc, nil
}

// entryTTL caps the cache lifetime at the token's exp claim. Tokens without a
// readable exp are not cached.
func (c *CachedIdentity) entryTTL(token string) time.Duration {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0
	}
	if claims.ExpiresAt == nil {
		return 0
	}
	return min(c.ttl, time.Until(claims.ExpiresAt.Time))
}

// UpdatePassword drops the caller's cached identity once the change succeeds.
func (c *CachedIdentity) UpdatePassword(ctx context.Context, user *domain.UserContext, newPassword string) error {
	if err := c.IdentityProvider.UpdatePassword(ctx, user, newPassword); err != nil {
		return err
	}
	c.cache.Delete(user.AccessToken)
	return nil
}
