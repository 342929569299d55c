package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"skycam/edgeagent/internal/repository"
	"skycam/edgeagent/pkg/fetch"
)

func newLifecycle(cache repository.CacheStore, client *fakeClient, version string) LifecycleService {
	return NewLifecycleService(
		cache, client, zap.NewNop(),
		version, upstream, testManifest, 5*time.Second, true,
	)
}

func TestBucketName(t *testing.T) {
	lc := newLifecycle(repository.NewMemoryCacheStore(), &fakeClient{}, "v4")

	assert.Equal(t, "static-v4", lc.BucketName(PurposeStatic))
	assert.Equal(t, "dynamic-v4", lc.BucketName(PurposeDynamic))
}

func TestInstall_PrecachesManifest(t *testing.T) {
	client := &fakeClient{handler: func(req *fetch.Request) (*fetch.Response, error) {
		return okResponse("text/html", "asset:"+req.URL), nil
	}}
	cache := repository.NewMemoryCacheStore()
	lc := newLifecycle(cache, client, "v4")

	require.NoError(t, lc.Install(context.Background()))

	for _, path := range testManifest {
		cached, err := cache.Match(context.Background(), "static-v4", CacheKey("GET", path))
		require.NoError(t, err)
		require.NotNil(t, cached, "manifest entry %s must be precached", path)
	}
	assert.True(t, lc.Controlling(), "install takes control when configured")
}

func TestInstall_PartialFailureIsNotFatal(t *testing.T) {
	// The second manifest entry fails; population stops there but install
	// still succeeds and the instance still takes control.
	client := &fakeClient{handler: func(req *fetch.Request) (*fetch.Response, error) {
		if strings.HasSuffix(req.URL, "/index.html") {
			return nil, errors.New("fetch failed")
		}
		return okResponse("text/html", "asset"), nil
	}}
	cache := repository.NewMemoryCacheStore()
	lc := newLifecycle(cache, client, "v4")

	require.NoError(t, lc.Install(context.Background()))

	first, err := cache.Match(context.Background(), "static-v4", CacheKey("GET", "/"))
	require.NoError(t, err)
	assert.NotNil(t, first, "entries before the failure stay cached")

	assert.Equal(t, 2, client.callCount(), "population stops at the first failure")
	assert.True(t, lc.Controlling())
}

func TestActivate_EvictsStaleBuckets(t *testing.T) {
	cache := repository.NewMemoryCacheStore()
	ctx := context.Background()

	// Buckets from the previous deploy plus current ones.
	for _, bucket := range []string{"static-v3", "dynamic-v3", "static-v4", "dynamic-v4"} {
		require.NoError(t, cache.Put(ctx, bucket, "GET /", okResponse("text/html", "x")))
	}

	lc := newLifecycle(cache, &fakeClient{}, "v4")
	require.NoError(t, lc.Activate(ctx))

	names, err := cache.ListBuckets(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"static-v4", "dynamic-v4"}, names)
}

func TestTakeControl_Idempotent(t *testing.T) {
	lc := newLifecycle(repository.NewMemoryCacheStore(), &fakeClient{}, "v4")

	assert.False(t, lc.Controlling())
	lc.TakeControl()
	lc.TakeControl()
	assert.True(t, lc.Controlling())
}
