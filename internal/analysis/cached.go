package analysis

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

const rolesCacheKey = "roles"

// CachedService serves the role catalog and per-role job descriptions from a TTL cache.
// Every other call passes through to the wrapped service.
type CachedService struct {
	Service
	cache *cache.Cache
}

// NewCachedService wraps inner with a cache whose entries live for ttl.
func NewCachedService(inner Service, ttl time.Duration) *CachedService {
	return &CachedService{
		Service: inner,
		cache:   cache.New(ttl, 2*ttl),
	}
}

// Roles returns the cached catalog, fetching it on a miss.
func (s *CachedService) Roles(ctx context.Context) ([]string, error) {
	if v, ok := s.cache.Get(rolesCacheKey); ok {
		return append([]string(nil), v.([]string)...), nil
	}
	roles, err := s.Service.Roles(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(rolesCacheKey, append([]string(nil), roles...))
	return roles, nil
}

// JDText returns the cached job description for role, fetching it on a miss.
func (s *CachedService) JDText(ctx context.Context, role string) (string, error) {
	key := "jd:" + role
	if v, ok := s.cache.Get(key); ok {
		return v.(string), nil
	}
	text, err := s.Service.JDText(ctx, role)
	if err != nil {
		return "", err
	}
	s.cache.SetDefault(key, text)
	return text, nil
}

// Invalidate drops every cached entry.
func (s *CachedService) Invalidate() {
	s.cache.Flush()
}
