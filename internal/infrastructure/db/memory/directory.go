// Package memory provides process-local implementations of the user
// directory and role catalog. Uniqueness is enforced under a single mutex, so
// the check and the insert are one atomic step. Data is lost on restart.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/99minutos/auth-system/internal/core/domain"
)

type UserDirectory struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byUsername map[string]string
	byEmail    map[string]string
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{
		byID:       make(map[string]*domain.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func (d *UserDirectory) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, taken := d.byUsername[user.Username]; taken {
		return nil, domain.ErrUsernameTaken
	}
	if _, taken := d.byEmail[user.Email]; taken {
		return nil, domain.ErrEmailTaken
	}

	stored := clone(user)
	stored.ID = uuid.NewString()
	d.byID[stored.ID] = stored
	d.byUsername[stored.Username] = stored.ID
	d.byEmail[stored.Email] = stored.ID
	return clone(stored), nil
}

func (d *UserDirectory) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byUsername[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(d.byID[id]), nil
}

func (d *UserDirectory) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

// Len returns the number of stored users.
func (d *UserDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

func clone(u *domain.User) *domain.User {
	c := *u
	c.Roles = append([]domain.Role(nil), u.Roles...)
	return &c
}
