//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gather/internal/platform/config"
	"gather/pkg/testutil/containers"
)

func TestClientConnectsAndReportsHealth(t *testing.T) {
	rc := containers.NewRedisContainer(t)

	client, err := New(context.Background(), config.RedisConfig{
		URL:         rc.URL,
		PoolSize:    2,
		DialTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, client.Health(context.Background()))
}
