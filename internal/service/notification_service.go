package service

import (
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"skycam/edgeagent/internal/config"
)

// NotificationAction is one of the two actions every notification carries.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Notification is a push payload merged over the configured defaults, ready
// to display.
type Notification struct {
	ID                 string               `json:"id"`
	Title              string               `json:"title"`
	Body               string               `json:"body"`
	Icon               string               `json:"icon"`
	Badge              string               `json:"badge"`
	Tag                string               `json:"tag"`
	Type               string               `json:"type,omitempty"`
	URL                string               `json:"url"`
	RequireInteraction bool                 `json:"require_interaction"`
	Actions            []NotificationAction `json:"actions"`
}

// ClickOp tells the caller what to do after a notification click.
type ClickOp string

const (
	// ClickOpClose dismisses the notification with no further action.
	ClickOpClose ClickOp = "close"
	// ClickOpFocused means an open window was focused and navigated.
	ClickOpFocused ClickOp = "focused"
	// ClickOpOpenWindow means no window was open; the caller opens a new
	// one at URL.
	ClickOpOpenWindow ClickOp = "open-window"
)

type ClickOutcome struct {
	Op  ClickOp `json:"op"`
	URL string  `json:"url,omitempty"`
}

// WindowRegistry tracks open application windows. Navigate focuses one and
// points it at url, reporting false when no window is open.
type WindowRegistry interface {
	Navigate(url string) bool
}

// NotificationService turns inbound push payloads into displayable
// notifications and routes click actions back into the application.
type NotificationService interface {
	Present(payload []byte) *Notification
	HandleClick(action, url string) *ClickOutcome
}

type notificationService struct {
	windows  WindowRegistry
	logger   *zap.Logger
	defaults config.NotificationConfig
}

func NewNotificationService(windows WindowRegistry, logger *zap.Logger, defaults config.NotificationConfig) NotificationService {
	return &notificationService{
		windows:  windows,
		logger:   logger,
		defaults: defaults,
	}
}

type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Badge string `json:"badge"`
	Tag   string `json:"tag"`
	Type  string `json:"type"`
	Data  struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Present parses the push body as JSON and merges parsed fields over the
// defaults. An unparseable body degrades to plain text: the raw bytes become
// the notification body and every other field keeps its default. The
// notification is never dropped.
func (s *notificationService) Present(payload []byte) *Notification {
	n := &Notification{
		ID:    uuid.New().String(),
		Title: s.defaults.AppName,
		Icon:  s.defaults.Icon,
		Badge: s.defaults.Badge,
		Tag:   s.defaults.Tag,
		URL:   s.defaults.DefaultURL,
		Actions: []NotificationAction{
			{Action: "view", Title: "View"},
			{Action: "dismiss", Title: "Dismiss"},
		},
	}

	var parsed pushPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		s.logger.Debug("push payload not JSON, using raw text", zap.Error(err))
		n.Body = string(payload)
		return n
	}

	if parsed.Title != "" {
		n.Title = parsed.Title
	}
	n.Body = parsed.Body
	if parsed.Icon != "" {
		n.Icon = parsed.Icon
	}
	if parsed.Badge != "" {
		n.Badge = parsed.Badge
	}
	if parsed.Tag != "" {
		n.Tag = parsed.Tag
	}
	n.Type = parsed.Type
	if parsed.Data.URL != "" {
		n.URL = parsed.Data.URL
	}

	// Motion and alert notifications stay on screen until acted on.
	switch parsed.Type {
	case "motion", "alert":
		n.RequireInteraction = true
	}

	return n
}

// HandleClick routes a notification click. Dismiss closes; any other action
// (including the default body click) focuses an open window on the target
// URL or, with none open, directs the caller to open a new window there.
func (s *notificationService) HandleClick(action, url string) *ClickOutcome {
	if action == "dismiss" {
		return &ClickOutcome{Op: ClickOpClose}
	}

	target := url
	if target == "" {
		target = s.defaults.DefaultURL
	}

	if s.windows.Navigate(target) {
		return &ClickOutcome{Op: ClickOpFocused, URL: target}
	}
	return &ClickOutcome{Op: ClickOpOpenWindow, URL: target}
}
