package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcflow/substrate/internal/repository"
	"github.com/arcflow/substrate/internal/valueobjects"
)

func TestNewWorkflowRepository_UnreachableHostFailsClosed(t *testing.T) {
	// 127.0.0.1:1 is never a listening MySQL server; migrate's connection
	// attempt must fail fast and surface as repository_unavailable, not a
	// hang or a panic.
	_, err := repository.NewWorkflowRepository("root:root@tcp(127.0.0.1:1)/substrate?timeout=200ms")
	require.Error(t, err)
	kind, ok := valueobjects.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, valueobjects.ErrRepositoryUnavailable, kind)
}

func TestEtcdToolRepository_UnreachableClusterFailsClosed(t *testing.T) {
	repo, err := repository.NewEtcdToolRepository([]string{"127.0.0.1:1"}, 200*time.Millisecond)
	require.NoError(t, err, "dialing etcd is lazy; construction itself should not fail")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, ok, err := repo.Lookup(ctx, "some-tool")
	require.Error(t, err, "an unreachable cluster must surface as an error, never ok=false")
	assert.False(t, ok)
	kind, found := valueobjects.KindOf(err)
	require.True(t, found)
	assert.Equal(t, valueobjects.ErrRepositoryUnavailable, kind)
}
