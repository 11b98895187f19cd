package providerRepo_test

import (
	"context"
	"testing"
	"time"

	"bookingpay/database/repository/memory"
	providerRepo "bookingpay/database/repository/provider"
	"bookingpay/models"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCachedDirectoryFallsBackWhenRedisIsDown(t *testing.T) {
	dir := memory.NewDirectory()
	dir.PutService(models.Service{ID: "svc-1", ProviderID: "prov-1", Price: 120, Active: true})

	unreachable := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer unreachable.Close()

	cached := providerRepo.NewCachedDirectory(dir, unreachable, time.Minute, zap.NewNop())
	svc, err := cached.GetService(context.Background(), "svc-1")
	require.NoError(t, err)
	assert.Equal(t, "prov-1", svc.ProviderID)
	assert.Equal(t, 120.0, svc.Price)
}

func TestCachedDirectoryPassesThroughProviders(t *testing.T) {
	dir := memory.NewDirectory()
	dir.PutProvider(models.Provider{ID: "prov-1", Active: true})

	cached := providerRepo.NewCachedDirectory(dir, nil, 0, zap.NewNop())
	p, err := cached.GetProvider(context.Background(), "prov-1")
	require.NoError(t, err)
	assert.True(t, p.Active)

	_, err = cached.GetService(context.Background(), "missing")
	assert.Error(t, err)
}
