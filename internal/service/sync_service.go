package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"skycam/edgeagent/internal/model"
	"skycam/edgeagent/internal/repository"
	"skycam/edgeagent/pkg/fetch"
	jwtpkg "skycam/edgeagent/pkg/jwt"
)

// FailedEvent records one event that survived a drain undelivered.
type FailedEvent struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// DrainSummary is the outcome of one full drain pass.
type DrainSummary struct {
	Synced       int           `json:"synced"`
	Failed       int           `json:"failed"`
	FailedEvents []FailedEvent `json:"failed_events,omitempty"`
}

// SyncService drains the pending-event store against the backend. Events are
// processed strictly sequentially and whole drains are serialized against
// each other, so fail_count read-modify-writes never interleave and a
// delivered-and-deleted event cannot be resurrected by a racing pass.
// Per-event failures are recorded in the summary; only drain-level failures
// (the store breaking, the host cancelling) propagate as errors so the host
// can reschedule the whole drain.
type SyncService interface {
	Drain(ctx context.Context, queue string) (*DrainSummary, error)
}

type syncService struct {
	mu     sync.Mutex
	events repository.PendingEventRepository
	client fetch.Client
	clock  Clock
	tokens *jwtpkg.Manager
	logger *zap.Logger

	endpoint    string
	timeout     time.Duration
	maxAttempts int
	baseDelay   time.Duration
}

func NewSyncService(
	events repository.PendingEventRepository,
	client fetch.Client,
	clock Clock,
	tokens *jwtpkg.Manager,
	logger *zap.Logger,
	backendBaseURL string,
	syncPath string,
	timeout time.Duration,
	maxAttempts int,
	baseDelay time.Duration,
) SyncService {
	return &syncService{
		events:      events,
		client:      client,
		clock:       clock,
		tokens:      tokens,
		logger:      logger,
		endpoint:    strings.TrimRight(backendBaseURL, "/") + syncPath,
		timeout:     timeout,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

func (s *syncService) Drain(ctx context.Context, queue string) (*DrainSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.events.GetAll(ctx, queue)
	if err != nil {
		return nil, fmt.Errorf("load pending events: %w", err)
	}

	summary := &DrainSummary{}
	for i := range pending {
		event := pending[i]

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("drain interrupted: %w", err)
		}

		// An event that exhausted its budget in a prior drain is not
		// retried until externally reset.
		if event.FailCount >= s.maxAttempts {
			summary.Failed++
			summary.FailedEvents = append(summary.FailedEvents, FailedEvent{
				ID:     event.ID,
				Reason: ErrRetryLimitExceeded.Error(),
			})
			continue
		}

		if err := s.deliverWithRetry(ctx, &event); err != nil {
			// Host cancellation is not a delivery verdict: the event
			// stays pending with its budget intact and the whole
			// drain reschedules.
			if cerr := ctx.Err(); cerr != nil {
				return nil, fmt.Errorf("drain interrupted: %w", cerr)
			}
			event.FailCount = s.maxAttempts
			now := s.clock.Now()
			event.LastFailedAt = &now
			if perr := s.events.Put(ctx, &event); perr != nil {
				return nil, fmt.Errorf("persist failure for event %s: %w", event.ID, perr)
			}
			summary.Failed++
			summary.FailedEvents = append(summary.FailedEvents, FailedEvent{
				ID:     event.ID,
				Reason: err.Error(),
			})
			s.logger.Warn("event sync exhausted",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}

		if err := s.events.Delete(ctx, event.ID); err != nil {
			return nil, fmt.Errorf("delete synced event %s: %w", event.ID, err)
		}
		summary.Synced++
		s.logger.Info("event synced", zap.String("event_id", event.ID))
	}
	return summary, nil
}

// deliverWithRetry grants the event its remaining attempt budget within this
// pass, sleeping baseDelay*2^(attempt-1) between consecutive attempts.
func (s *syncService) deliverWithRetry(ctx context.Context, event *model.PendingSyncEvent) error {
	attempts := s.maxAttempts - event.FailCount

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = s.deliver(ctx, event)
		if lastErr == nil {
			return nil
		}

		if attempt < attempts {
			delay := s.baseDelay << (attempt - 1)
			if err := s.clock.Sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return lastErr
}

func (s *syncService) deliver(ctx context.Context, event *model.PendingSyncEvent) error {
	token, err := s.tokens.GenerateServiceToken()
	if err != nil {
		return fmt.Errorf("mint service token: %w", err)
	}

	req := &fetch.Request{
		Method: "POST",
		URL:    s.endpoint,
		Header: http.Header{
			"Content-Type":  {"application/json"},
			"Authorization": {"Bearer " + token},
		},
		Body: event.Payload,
	}

	resp, err := fetch.WithTimeout(ctx, s.timeout, func(ctx context.Context) (*fetch.Response, error) {
		return s.client.Do(ctx, req)
	})
	if err != nil {
		return err
	}
	// A non-success status is treated identically to a network error.
	if !resp.OK() {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return nil
}
