package rolecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/infrastructure/db/memory"
)

type countingCatalog struct {
	*memory.RoleCatalog
	lookups [][]string
	err     error
}

func (c *countingCatalog) FindByNames(ctx context.Context, names []string) ([]domain.Role, error) {
	c.lookups = append(c.lookups, append([]string(nil), names...))
	if c.err != nil {
		return nil, c.err
	}
	return c.RoleCatalog.FindByNames(ctx, names)
}

func newSeeded(t *testing.T) *countingCatalog {
	t.Helper()
	inner := &countingCatalog{RoleCatalog: memory.NewRoleCatalog()}
	_, err := inner.Seed(context.Background(), domain.RoleCatalog)
	require.NoError(t, err)
	return inner
}

func TestCatalog_CachesKnownRoles(t *testing.T) {
	inner := newSeeded(t)
	c := New(inner, time.Minute)
	ctx := context.Background()

	roles, err := c.FindByNames(ctx, []string{"user", "admin"})
	require.NoError(t, err)
	require.Len(t, roles, 2)

	roles, err = c.FindByNames(ctx, []string{"admin", "user"})
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "admin", roles[0].Name)

	assert.Len(t, inner.lookups, 1)
}

func TestCatalog_OnlyFetchesMissing(t *testing.T) {
	inner := newSeeded(t)
	c := New(inner, time.Minute)
	ctx := context.Background()

	_, err := c.FindByNames(ctx, []string{"user"})
	require.NoError(t, err)

	roles, err := c.FindByNames(ctx, []string{"user", "moderator", "ghost"})
	require.NoError(t, err)
	require.Len(t, roles, 2)

	require.Len(t, inner.lookups, 2)
	assert.Equal(t, []string{"moderator", "ghost"}, inner.lookups[1])
}

func TestCatalog_PropagatesErrors(t *testing.T) {
	inner := newSeeded(t)
	inner.err = errors.New("boom")
	c := New(inner, time.Minute)

	_, err := c.FindByNames(context.Background(), []string{"user"})
	assert.Error(t, err)
}
