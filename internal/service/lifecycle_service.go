package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"skycam/edgeagent/internal/repository"
	"skycam/edgeagent/pkg/fetch"
)

const (
	PurposeStatic  = "static"
	PurposeDynamic = "dynamic"
)

// LifecycleService owns cache bucket naming and versioning. Install precaches
// the static manifest, Activate evicts buckets left behind by older versions,
// and TakeControl flips the flag that lets this instance start serving live
// requests.
type LifecycleService interface {
	BucketName(purpose string) string
	Install(ctx context.Context) error
	Activate(ctx context.Context) error
	TakeControl()
	Controlling() bool
}

type lifecycleService struct {
	cache            repository.CacheStore
	client           fetch.Client
	logger           *zap.Logger
	version          string
	upstreamURL      string
	manifest         []string
	networkTimeout   time.Duration
	controlOnInstall bool
	controlling      atomic.Bool
}

func NewLifecycleService(
	cache repository.CacheStore,
	client fetch.Client,
	logger *zap.Logger,
	version string,
	upstreamURL string,
	manifest []string,
	networkTimeout time.Duration,
	controlOnInstall bool,
) LifecycleService {
	return &lifecycleService{
		cache:            cache,
		client:           client,
		logger:           logger,
		version:          version,
		upstreamURL:      strings.TrimRight(upstreamURL, "/"),
		manifest:         manifest,
		networkTimeout:   networkTimeout,
		controlOnInstall: controlOnInstall,
	}
}

func (s *lifecycleService) BucketName(purpose string) string {
	return fmt.Sprintf("%s-%s", purpose, s.version)
}

// Install precaches the static manifest into the current static bucket. A
// fetch failure aborts the remaining population but is not fatal: the agent
// still activates and the cache-first strategy backfills missing entries on
// the next successful fetch.
func (s *lifecycleService) Install(ctx context.Context) error {
	bucket := s.BucketName(PurposeStatic)

	if err := s.precache(ctx, bucket); err != nil {
		s.logger.Warn("static precache incomplete",
			zap.String("bucket", bucket),
			zap.Error(err),
		)
	} else {
		s.logger.Info("static assets precached",
			zap.String("bucket", bucket),
			zap.Int("count", len(s.manifest)),
		)
	}

	if s.controlOnInstall {
		s.TakeControl()
	}
	return nil
}

func (s *lifecycleService) precache(ctx context.Context, bucket string) error {
	for _, path := range s.manifest {
		req := &fetch.Request{Method: "GET", URL: s.upstreamURL + path}
		resp, err := fetch.WithTimeout(ctx, s.networkTimeout, func(ctx context.Context) (*fetch.Response, error) {
			return s.client.Do(ctx, req)
		})
		if err != nil {
			return fmt.Errorf("fetch %s: %w", path, err)
		}
		if !resp.OK() {
			return fmt.Errorf("fetch %s: status %d", path, resp.StatusCode)
		}
		if err := s.cache.Put(ctx, bucket, CacheKey("GET", path), resp); err != nil {
			return fmt.Errorf("cache %s: %w", path, err)
		}
	}
	return nil
}

// Activate deletes every bucket whose name matches neither the current static
// nor the current dynamic bucket, reclaiming storage left by prior deploys.
func (s *lifecycleService) Activate(ctx context.Context) error {
	current := map[string]bool{
		s.BucketName(PurposeStatic):  true,
		s.BucketName(PurposeDynamic): true,
	}

	names, err := s.cache.ListBuckets(ctx)
	if err != nil {
		return fmt.Errorf("list buckets: %w", err)
	}

	for _, name := range names {
		if current[name] {
			continue
		}
		if err := s.cache.DeleteBucket(ctx, name); err != nil {
			return fmt.Errorf("delete bucket %s: %w", name, err)
		}
		s.logger.Info("stale cache bucket deleted", zap.String("bucket", name))
	}
	return nil
}

func (s *lifecycleService) TakeControl() {
	if s.controlling.CompareAndSwap(false, true) {
		s.logger.Info("instance took control", zap.String("version", s.version))
	}
}

func (s *lifecycleService) Controlling() bool {
	return s.controlling.Load()
}

// CacheKey normalizes a request to its cache identity: method plus URL path.
func CacheKey(method, path string) string {
	return method + " " + path
}
