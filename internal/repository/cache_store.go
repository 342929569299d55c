package repository

import (
	"context"

	"skycam/edgeagent/pkg/fetch"
)

// CacheStore is a versioned key->response store organized into named buckets.
// Buckets are durable across restarts of the agent but not across version
// changes: activation deletes every bucket whose name no longer matches the
// current version tags.
//
// Implementations: Redis (production) or in-memory (local dev / tests).
// A miss returns (nil, nil), matching the StateStore convention.
type CacheStore interface {
	Put(ctx context.Context, bucket, key string, resp *fetch.Response) error
	Match(ctx context.Context, bucket, key string) (*fetch.Response, error)
	ListBuckets(ctx context.Context) ([]string, error)
	DeleteBucket(ctx context.Context, bucket string) error
}
