package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"skycam/edgeagent/pkg/fetch"
)

const bucketRegistryKey = "cache:buckets"

type redisCacheStore struct {
	client *redis.Client
}

func NewRedisCacheStore(client *redis.Client) CacheStore {
	return &redisCacheStore{client: client}
}

func entryKey(bucket, key string) string {
	return fmt.Sprintf("cache:%s:%s", bucket, key)
}

func (s *redisCacheStore) Put(ctx context.Context, bucket, key string, resp *fetch.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if err := s.client.SAdd(ctx, bucketRegistryKey, bucket).Err(); err != nil {
		return err
	}
	return s.client.Set(ctx, entryKey(bucket, key), data, 0).Err()
}

func (s *redisCacheStore) Match(ctx context.Context, bucket, key string) (*fetch.Response, error) {
	data, err := s.client.Get(ctx, entryKey(bucket, key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	resp := &fetch.Response{}
	if err := json.Unmarshal(data, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *redisCacheStore) ListBuckets(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, bucketRegistryKey).Result()
}

func (s *redisCacheStore) DeleteBucket(ctx context.Context, bucket string) error {
	iter := s.client.Scan(ctx, 0, entryKey(bucket, "*"), 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return s.client.SRem(ctx, bucketRegistryKey, bucket).Err()
}
