package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/99minutos/auth-system/internal/core/domain"
)

type RoleCatalog struct {
	mu     sync.RWMutex
	byName map[string]domain.Role
}

func NewRoleCatalog() *RoleCatalog {
	return &RoleCatalog{byName: make(map[string]domain.Role)}
}

func (c *RoleCatalog) Seed(_ context.Context, names []string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.byName) > 0 {
		return 0, nil
	}
	for _, n := range names {
		c.byName[n] = domain.Role{ID: uuid.NewString(), Name: n}
	}
	return len(c.byName), nil
}

func (c *RoleCatalog) FindByNames(_ context.Context, names []string) ([]domain.Role, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Role, 0, len(names))
	for _, n := range names {
		if r, ok := c.byName[n]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}
