package service

import (
	"context"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"skycam/edgeagent/internal/repository"
	"skycam/edgeagent/pkg/fetch"
)

// Strategy identifies how an intercepted request is served.
type Strategy int

const (
	// StrategyBypass passes the request through untouched: API calls and
	// non-HTTP (realtime socket) traffic.
	StrategyBypass Strategy = iota
	// StrategyAlwaysFresh is network-first-with-timeout for script assets,
	// which must never serve stale while the network is reachable.
	StrategyAlwaysFresh
	// StrategyStableFirst is cache-first with background refresh for the
	// precached static shell.
	StrategyStableFirst
	// StrategyDefault is network-first-with-timeout with a navigation-aware
	// fallback for everything else.
	StrategyDefault
)

// StrategyService classifies every intercepted request and serves it by
// exactly one strategy. Serve never fails: a total miss resolves to a
// synthesized placeholder.
type StrategyService interface {
	Classify(req *fetch.Request) Strategy
	Serve(ctx context.Context, req *fetch.Request) *fetch.Response
	// Close waits for in-flight background refreshes to settle.
	Close()
}

type strategyService struct {
	cache     repository.CacheStore
	client    fetch.Client
	lifecycle LifecycleService
	offline   OfflineService
	logger    *zap.Logger

	timeout   time.Duration
	apiPrefix string
	manifest  map[string]bool
	rootDoc   string

	refreshes sync.WaitGroup
}

func NewStrategyService(
	cache repository.CacheStore,
	client fetch.Client,
	lifecycle LifecycleService,
	offline OfflineService,
	logger *zap.Logger,
	timeout time.Duration,
	apiPrefix string,
	manifest []string,
) StrategyService {
	manifestSet := make(map[string]bool, len(manifest))
	rootDoc := "/"
	for _, p := range manifest {
		manifestSet[p] = true
		if p == "/index.html" {
			rootDoc = p
		}
	}
	return &strategyService{
		cache:     cache,
		client:    client,
		lifecycle: lifecycle,
		offline:   offline,
		logger:    logger,
		timeout:   timeout,
		apiPrefix: apiPrefix,
		manifest:  manifestSet,
		rootDoc:   rootDoc,
	}
}

// Classify applies the precedence order: bypass, always-fresh, stable-first,
// default.
func (s *strategyService) Classify(req *fetch.Request) Strategy {
	u, err := url.Parse(req.URL)
	if err != nil {
		return StrategyBypass
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return StrategyBypass
	}
	if strings.EqualFold(req.Header.Get("Upgrade"), "websocket") {
		return StrategyBypass
	}
	if strings.HasPrefix(u.Path, s.apiPrefix) {
		return StrategyBypass
	}

	switch strings.ToLower(path.Ext(u.Path)) {
	case ".js", ".mjs":
		return StrategyAlwaysFresh
	}

	if s.manifest[u.Path] {
		return StrategyStableFirst
	}
	return StrategyDefault
}

func (s *strategyService) Serve(ctx context.Context, req *fetch.Request) *fetch.Response {
	urlPath := requestPath(req)

	switch s.Classify(req) {
	case StrategyBypass:
		// Bypass requests are proxied by the caller, not served here.
		return nil

	case StrategyAlwaysFresh:
		if resp := s.networkFirst(ctx, req); resp != nil {
			return resp
		}
		return s.offline.Synthesize(urlPath)

	case StrategyStableFirst:
		return s.stableFirst(ctx, req, urlPath)

	default:
		if resp := s.networkFirst(ctx, req); resp != nil {
			return resp
		}
		if isNavigation(req) {
			key := CacheKey("GET", s.rootDoc)
			root, err := s.cache.Match(ctx, s.lifecycle.BucketName(PurposeStatic), key)
			if err == nil && root != nil {
				return root
			}
			return s.offline.OfflinePage()
		}
		return s.offline.Synthesize(urlPath)
	}
}

// networkFirst races the network against the timeout. A network response is
// returned as-is (and cached when 2xx); on error or timeout the best cached
// copy wins, and nil means the caller must synthesize.
func (s *strategyService) networkFirst(ctx context.Context, req *fetch.Request) *fetch.Response {
	key := cacheKeyFor(req)

	resp, err := fetch.WithTimeout(ctx, s.timeout, func(ctx context.Context) (*fetch.Response, error) {
		return s.client.Do(ctx, req)
	})
	if err == nil {
		if resp.OK() {
			bucket := s.lifecycle.BucketName(PurposeDynamic)
			if perr := s.cache.Put(ctx, bucket, key, resp); perr != nil {
				s.logger.Warn("dynamic cache write failed", zap.String("key", key), zap.Error(perr))
			}
		}
		return resp
	}

	s.logger.Debug("network unavailable, trying cache",
		zap.String("key", key),
		zap.Error(err),
	)

	for _, purpose := range []string{PurposeDynamic, PurposeStatic} {
		cached, cerr := s.cache.Match(ctx, s.lifecycle.BucketName(purpose), key)
		if cerr == nil && cached != nil {
			return cached
		}
	}
	return nil
}

// stableFirst serves the cached copy immediately and refreshes it in the
// background; only a cold cache waits on the network.
func (s *strategyService) stableFirst(ctx context.Context, req *fetch.Request, urlPath string) *fetch.Response {
	bucket := s.lifecycle.BucketName(PurposeStatic)
	key := cacheKeyFor(req)

	cached, err := s.cache.Match(ctx, bucket, key)
	if err == nil && cached != nil {
		s.refreshInBackground(req, bucket, key)
		return cached
	}

	resp, err := fetch.WithTimeout(ctx, s.timeout, func(ctx context.Context) (*fetch.Response, error) {
		return s.client.Do(ctx, req)
	})
	if err != nil {
		return s.offline.Synthesize(urlPath)
	}
	if resp.OK() {
		if perr := s.cache.Put(ctx, bucket, key, resp); perr != nil {
			s.logger.Warn("static cache write failed", zap.String("key", key), zap.Error(perr))
		}
	}
	return resp
}

// refreshInBackground refetches a static asset without blocking the response
// that was already served from cache. Failures are swallowed: the cached copy
// stays valid until a refresh succeeds.
func (s *strategyService) refreshInBackground(req *fetch.Request, bucket, key string) {
	s.refreshes.Add(1)
	go func() {
		defer s.refreshes.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		resp, err := s.client.Do(ctx, req)
		if err != nil || !resp.OK() {
			s.logger.Debug("background refresh skipped", zap.String("key", key), zap.Error(err))
			return
		}
		if err := s.cache.Put(ctx, bucket, key, resp); err != nil {
			s.logger.Debug("background refresh write failed", zap.String("key", key), zap.Error(err))
		}
	}()
}

func (s *strategyService) Close() {
	s.refreshes.Wait()
}

func requestPath(req *fetch.Request) string {
	u, err := url.Parse(req.URL)
	if err != nil {
		return req.URL
	}
	return u.Path
}

// cacheKeyFor normalizes a request to method plus path and query.
func cacheKeyFor(req *fetch.Request) string {
	u, err := url.Parse(req.URL)
	if err != nil {
		return CacheKey(req.Method, req.URL)
	}
	p := u.Path
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return CacheKey(req.Method, p)
}

// isNavigation reports whether the request expects a full page render.
func isNavigation(req *fetch.Request) bool {
	if req.Method != "GET" {
		return false
	}
	if req.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}
