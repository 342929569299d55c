package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"skycam/edgeagent/internal/config"
)

var testDefaults = config.NotificationConfig{
	AppName:    "SkyCamOS",
	Icon:       "/icons/icon-192.png",
	Badge:      "/icons/badge-72.png",
	Tag:        "skycam-notification",
	DefaultURL: "#/dashboard",
}

type fakeWindows struct {
	open      bool
	navigated []string
}

func (w *fakeWindows) Navigate(url string) bool {
	if !w.open {
		return false
	}
	w.navigated = append(w.navigated, url)
	return true
}

func newNotificationSvc(windows *fakeWindows) NotificationService {
	return NewNotificationService(windows, zap.NewNop(), testDefaults)
}

func TestPresent_RawTextPayload(t *testing.T) {
	svc := newNotificationSvc(&fakeWindows{})

	n := svc.Present([]byte("Camera 3 motion detected"))

	require.NotNil(t, n)
	assert.Equal(t, "SkyCamOS", n.Title)
	assert.Equal(t, "Camera 3 motion detected", n.Body)
	assert.Equal(t, "/icons/icon-192.png", n.Icon)
	assert.Equal(t, "/icons/badge-72.png", n.Badge)
	assert.Equal(t, "skycam-notification", n.Tag)
	assert.False(t, n.RequireInteraction)
}

func TestPresent_ParsedFieldsWinOverDefaults(t *testing.T) {
	svc := newNotificationSvc(&fakeWindows{})

	payload := `{
		"title": "Motion detected",
		"body": "Camera 3 front door",
		"icon": "/icons/motion.png",
		"tag": "motion-cam3",
		"type": "motion",
		"data": {"url": "#/cameras/3"}
	}`
	n := svc.Present([]byte(payload))

	assert.Equal(t, "Motion detected", n.Title)
	assert.Equal(t, "Camera 3 front door", n.Body)
	assert.Equal(t, "/icons/motion.png", n.Icon)
	assert.Equal(t, "/icons/badge-72.png", n.Badge, "unset fields keep defaults")
	assert.Equal(t, "motion-cam3", n.Tag)
	assert.Equal(t, "#/cameras/3", n.URL)
	assert.True(t, n.RequireInteraction, "motion notifications require interaction")
}

func TestPresent_AlwaysHasViewAndDismiss(t *testing.T) {
	svc := newNotificationSvc(&fakeWindows{})

	for _, payload := range []string{`{"title":"x"}`, "not json"} {
		n := svc.Present([]byte(payload))
		require.Len(t, n.Actions, 2)
		assert.Equal(t, "view", n.Actions[0].Action)
		assert.Equal(t, "dismiss", n.Actions[1].Action)
	}
}

func TestPresent_RequireInteractionByType(t *testing.T) {
	svc := newNotificationSvc(&fakeWindows{})

	tests := []struct {
		typ  string
		want bool
	}{
		{"motion", true},
		{"alert", true},
		{"info", false},
		{"", false},
	}
	for _, tt := range tests {
		n := svc.Present([]byte(`{"type":"` + tt.typ + `"}`))
		assert.Equal(t, tt.want, n.RequireInteraction, "type %q", tt.typ)
	}
}

func TestHandleClick_DismissClosesOnly(t *testing.T) {
	windows := &fakeWindows{open: true}
	svc := newNotificationSvc(windows)

	outcome := svc.HandleClick("dismiss", "#/cameras/3")

	assert.Equal(t, ClickOpClose, outcome.Op)
	assert.Empty(t, windows.navigated)
}

func TestHandleClick_FocusesOpenWindow(t *testing.T) {
	windows := &fakeWindows{open: true}
	svc := newNotificationSvc(windows)

	outcome := svc.HandleClick("view", "#/cameras/3")

	assert.Equal(t, ClickOpFocused, outcome.Op)
	assert.Equal(t, []string{"#/cameras/3"}, windows.navigated)
}

func TestHandleClick_OpensWindowWhenNoneOpen(t *testing.T) {
	svc := newNotificationSvc(&fakeWindows{open: false})

	outcome := svc.HandleClick("view", "")

	assert.Equal(t, ClickOpOpenWindow, outcome.Op)
	assert.Equal(t, "#/dashboard", outcome.URL, "empty target falls back to the default URL")
}

func TestHandleClick_DefaultBodyClickNavigates(t *testing.T) {
	windows := &fakeWindows{open: true}
	svc := newNotificationSvc(windows)

	outcome := svc.HandleClick("", "")

	assert.Equal(t, ClickOpFocused, outcome.Op)
	assert.Equal(t, "#/dashboard", outcome.URL)
}
