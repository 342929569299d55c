// Package agent binds host-delivered events (install, activate, fetch, push,
// sync, message, notification-click) to the services that handle them. The
// dispatch table is built once at startup; there is no ambient listener
// registration.
package agent

import (
	"context"

	"go.uber.org/zap"

	"skycam/edgeagent/internal/service"
	"skycam/edgeagent/pkg/fetch"
)

// Message is a control-channel payload.
type Message struct {
	Type string `json:"type"`
	Tag  string `json:"tag,omitempty"`
}

type messageHandler func(ctx context.Context, msg *Message) (interface{}, error)

type Agent struct {
	lifecycle     service.LifecycleService
	strategy      service.StrategyService
	sync          service.SyncService
	notifications service.NotificationService
	logger        *zap.Logger

	defaultQueue string
	handlers     map[string]messageHandler
}

func New(
	lifecycle service.LifecycleService,
	strategy service.StrategyService,
	syncSvc service.SyncService,
	notifications service.NotificationService,
	logger *zap.Logger,
	defaultQueue string,
) *Agent {
	a := &Agent{
		lifecycle:     lifecycle,
		strategy:      strategy,
		sync:          syncSvc,
		notifications: notifications,
		logger:        logger,
		defaultQueue:  defaultQueue,
	}
	a.handlers = map[string]messageHandler{
		"activate-now": a.handleActivateNow,
		"sync":         a.handleSync,
	}
	return a
}

// OnInstall precaches static assets for the current version.
func (a *Agent) OnInstall(ctx context.Context) error {
	return a.lifecycle.Install(ctx)
}

// OnActivate evicts cache buckets left behind by older versions.
func (a *Agent) OnActivate(ctx context.Context) error {
	return a.lifecycle.Activate(ctx)
}

// OnFetch serves one intercepted request. Returns nil for bypass requests,
// which the transport layer proxies untouched.
func (a *Agent) OnFetch(ctx context.Context, req *fetch.Request) *fetch.Response {
	return a.strategy.Serve(ctx, req)
}

// OnPush presents an inbound push payload.
func (a *Agent) OnPush(payload []byte) *service.Notification {
	return a.notifications.Present(payload)
}

// OnNotificationClick routes a notification click action.
func (a *Agent) OnNotificationClick(action, url string) *service.ClickOutcome {
	return a.notifications.HandleClick(action, url)
}

// OnSync drains the pending-event queue. Called on the connectivity-restored
// signal.
func (a *Agent) OnSync(ctx context.Context, queue string) (*service.DrainSummary, error) {
	if queue == "" {
		queue = a.defaultQueue
	}
	return a.sync.Drain(ctx, queue)
}

// Dispatch routes a control-channel message through the dispatch table.
func (a *Agent) Dispatch(ctx context.Context, msg *Message) (interface{}, error) {
	handler, ok := a.handlers[msg.Type]
	if !ok {
		a.logger.Warn("unknown control message", zap.String("type", msg.Type))
		return nil, service.ErrUnknownMessageType
	}
	return handler(ctx, msg)
}

func (a *Agent) handleActivateNow(_ context.Context, _ *Message) (interface{}, error) {
	a.lifecycle.TakeControl()
	return map[string]bool{"controlling": a.lifecycle.Controlling()}, nil
}

func (a *Agent) handleSync(ctx context.Context, msg *Message) (interface{}, error) {
	return a.OnSync(ctx, msg.Tag)
}
