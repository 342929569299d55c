package handler

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skycam/edgeagent/internal/agent"
	"skycam/edgeagent/internal/service"
	"skycam/edgeagent/pkg/fetch"
)

// ProxyHandler intercepts every request the agent fronts. Requests that
// classify as bypass, and all traffic while this instance has not taken
// control, are reverse-proxied to the upstream untouched; everything else
// goes through the strategy router.
type ProxyHandler struct {
	agent     *agent.Agent
	strategy  service.StrategyService
	lifecycle service.LifecycleService
	proxy     *httputil.ReverseProxy
	upstream  string
	logger    *zap.Logger
}

func NewProxyHandler(
	a *agent.Agent,
	strategy service.StrategyService,
	lifecycle service.LifecycleService,
	upstreamBaseURL string,
	logger *zap.Logger,
) (*ProxyHandler, error) {
	target, err := url.Parse(upstreamBaseURL)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("upstream proxy error", zap.String("path", r.URL.Path), zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)
	}

	return &ProxyHandler{
		agent:     a,
		strategy:  strategy,
		lifecycle: lifecycle,
		proxy:     proxy,
		upstream:  strings.TrimRight(upstreamBaseURL, "/"),
		logger:    logger,
	}, nil
}

func (h *ProxyHandler) Handle(c *gin.Context) {
	req, err := h.toFetchRequest(c)
	if err != nil {
		c.String(http.StatusBadRequest, "unreadable request body")
		return
	}

	if !h.lifecycle.Controlling() || h.strategy.Classify(req) == service.StrategyBypass {
		h.proxy.ServeHTTP(c.Writer, c.Request)
		return
	}

	resp := h.agent.OnFetch(c.Request.Context(), req)
	if resp == nil {
		h.proxy.ServeHTTP(c.Writer, c.Request)
		return
	}
	writeResponse(c, resp)
}

// toFetchRequest snapshots the inbound request against the upstream origin.
// The body is re-armed so a later proxy passthrough still works.
func (h *ProxyHandler) toFetchRequest(c *gin.Context) (*fetch.Request, error) {
	var body []byte
	if c.Request.Body != nil {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, err
		}
		body = b
		c.Request.Body = io.NopCloser(bytes.NewReader(b))
	}

	return &fetch.Request{
		Method: c.Request.Method,
		URL:    h.upstream + c.Request.URL.RequestURI(),
		Header: c.Request.Header.Clone(),
		Body:   body,
	}, nil
}

func writeResponse(c *gin.Context, resp *fetch.Response) {
	for k, vs := range resp.Header {
		if k == "Content-Type" || k == "Content-Length" {
			continue
		}
		for _, v := range vs {
			c.Writer.Header().Add(k, v)
		}
	}
	c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), resp.Body)
}
