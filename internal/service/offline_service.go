package service

import (
	"net/http"
	"path"
	"strings"

	"skycam/edgeagent/pkg/fetch"
)

// OfflineService fabricates placeholder responses when both network and cache
// fail. It never returns an error: every request gets a well-formed response.
type OfflineService interface {
	Synthesize(urlPath string) *fetch.Response
	OfflinePage() *fetch.Response
}

type offlineService struct {
	appName string
}

func NewOfflineService(appName string) OfflineService {
	return &offlineService{appName: appName}
}

type placeholder struct {
	contentType string
	body        string
}

// Minimal valid empty bodies per extension. Stylesheets and scripts get 200s
// so a degraded page keeps its layout and doesn't cascade script errors.
var placeholders = map[string]placeholder{
	".css":  {"text/css", ""},
	".js":   {"application/javascript", ""},
	".mjs":  {"application/javascript", ""},
	".json": {"application/json", "{}"},
	".png":  {"image/png", ""},
	".jpg":  {"image/jpeg", ""},
	".jpeg": {"image/jpeg", ""},
	".gif":  {"image/gif", ""},
	".svg":  {"image/svg+xml", ""},
	".webp": {"image/webp", ""},
	".ico":  {"image/x-icon", ""},
}

func (s *offlineService) Synthesize(urlPath string) *fetch.Response {
	ext := strings.ToLower(path.Ext(urlPath))
	if p, ok := placeholders[ext]; ok {
		return &fetch.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {p.contentType}},
			Body:       []byte(p.body),
		}
	}
	return &fetch.Response{
		StatusCode: http.StatusServiceUnavailable,
		Header:     http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
		Body:       []byte("Service unavailable - you are offline"),
	}
}

// OfflinePage returns a complete, self-contained HTML document shown for
// failed navigations. It must not reference any external asset.
func (s *offlineService) OfflinePage() *fetch.Response {
	html := `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>` + s.appName + ` - Offline</title>
<style>
body { font-family: -apple-system, sans-serif; background: #10141a; color: #e8eaed;
       display: flex; align-items: center; justify-content: center; height: 100vh; margin: 0; }
.card { text-align: center; padding: 2rem; }
h1 { font-size: 1.5rem; }
p { color: #9aa0a6; }
button { background: #2d7ff9; color: #fff; border: 0; border-radius: 4px;
         padding: 0.6rem 1.4rem; font-size: 1rem; cursor: pointer; }
</style>
</head>
<body>
<div class="card">
<h1>` + s.appName + ` is offline</h1>
<p>No network connection and no cached copy of this page.</p>
<button onclick="location.reload()">Retry</button>
</div>
</body>
</html>`

	return &fetch.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:       []byte(html),
	}
}
