package agent

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"skycam/edgeagent/pkg/fetch"
)

// ConnectivityWatcher probes the backend and synthesizes the
// connectivity-restored signal: every offline-to-online transition triggers
// a sync drain. The watcher starts offline, so the first successful probe
// after boot also drains whatever queued up while the agent was down.
type ConnectivityWatcher struct {
	agent    *Agent
	client   fetch.Client
	logger   *zap.Logger
	probeURL string
	interval time.Duration
	timeout  time.Duration
	queue    string
	online   bool
}

func NewConnectivityWatcher(
	a *Agent,
	client fetch.Client,
	logger *zap.Logger,
	backendBaseURL string,
	probePath string,
	interval time.Duration,
	timeout time.Duration,
	queue string,
) *ConnectivityWatcher {
	return &ConnectivityWatcher{
		agent:    a,
		client:   client,
		logger:   logger,
		probeURL: strings.TrimRight(backendBaseURL, "/") + probePath,
		interval: interval,
		timeout:  timeout,
		queue:    queue,
	}
}

// Run probes until the context is cancelled.
func (w *ConnectivityWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.probe(ctx)
		}
	}
}

func (w *ConnectivityWatcher) probe(ctx context.Context) {
	req := &fetch.Request{Method: "GET", URL: w.probeURL}
	resp, err := fetch.WithTimeout(ctx, w.timeout, func(ctx context.Context) (*fetch.Response, error) {
		return w.client.Do(ctx, req)
	})
	nowOnline := err == nil && resp.OK()

	if nowOnline && !w.online {
		w.logger.Info("connectivity restored, draining pending events")
		summary, err := w.agent.OnSync(ctx, w.queue)
		if err != nil {
			// Drain-level failure: leave state offline so the next
			// probe reschedules the whole drain.
			w.logger.Error("drain failed, will retry on next probe", zap.Error(err))
			return
		}
		w.logger.Info("drain complete",
			zap.Int("synced", summary.Synced),
			zap.Int("failed", summary.Failed),
		)
	}
	w.online = nowOnline
}
