package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"skycam/edgeagent/internal/agent"
	"skycam/edgeagent/pkg/response"
)

// PushHandler receives push payloads and notification click actions.
type PushHandler struct {
	agent *agent.Agent
	hub   *WindowsHub
}

func NewPushHandler(a *agent.Agent, hub *WindowsHub) *PushHandler {
	return &PushHandler{agent: a, hub: hub}
}

// Receive presents the raw push body and broadcasts the resulting
// notification to every open window.
func (h *PushHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "unreadable push body")
		return
	}

	n := h.agent.OnPush(body)
	h.hub.Broadcast("notification", n)
	response.Success(c, n)
}

type clickRequest struct {
	Action string `json:"action"`
	URL    string `json:"url"`
}

func (h *PushHandler) Click(c *gin.Context) {
	var req clickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid click payload: "+err.Error())
		return
	}

	outcome := h.agent.OnNotificationClick(req.Action, req.URL)
	response.Success(c, outcome)
}
