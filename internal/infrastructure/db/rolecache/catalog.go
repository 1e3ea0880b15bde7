// Package rolecache keeps resolved roles in process memory. The catalog is
// fixed after seeding, so signup rarely needs to reach the store for it.
package rolecache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

const (
	defaultSize = 64
	defaultTTL  = 10 * time.Minute
)

// Catalog decorates a ports.RoleCatalog with an expirable LRU keyed by role
// name. Unknown names are not cached.
type Catalog struct {
	next  ports.RoleCatalog
	cache *lru.LRU[string, domain.Role]
}

// New wraps next. A non-positive ttl selects defaultTTL.
func New(next ports.RoleCatalog, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Catalog{
		next:  next,
		cache: lru.NewLRU[string, domain.Role](defaultSize, nil, ttl),
	}
}

// Seed passes through and drops everything cached.
func (c *Catalog) Seed(ctx context.Context, names []string) (int, error) {
	n, err := c.next.Seed(ctx, names)
	c.cache.Purge()
	return n, err
}

func (c *Catalog) FindByNames(ctx context.Context, names []string) ([]domain.Role, error) {
	found := make(map[string]domain.Role, len(names))
	var missing []string
	for _, n := range names {
		if r, ok := c.cache.Get(n); ok {
			found[n] = r
			continue
		}
		missing = append(missing, n)
	}

	if len(missing) > 0 {
		fetched, err := c.next.FindByNames(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, r := range fetched {
			c.cache.Add(r.Name, r)
			found[r.Name] = r
		}
	}

	out := make([]domain.Role, 0, len(found))
	for _, n := range names {
		if r, ok := found[n]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}
