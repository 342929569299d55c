package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"skycam/edgeagent/internal/agent"
	"skycam/edgeagent/internal/service"
	"skycam/edgeagent/pkg/response"
)

// ControlHandler exposes the control message channel: activate-now and
// explicit sync triggers.
type ControlHandler struct {
	agent *agent.Agent
}

func NewControlHandler(a *agent.Agent) *ControlHandler {
	return &ControlHandler{agent: a}
}

func (h *ControlHandler) Message(c *gin.Context) {
	var msg agent.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		response.BadRequest(c, "invalid message: "+err.Error())
		return
	}

	result, err := h.agent.Dispatch(c.Request.Context(), &msg)
	if err != nil {
		if errors.Is(err, service.ErrUnknownMessageType) {
			response.BadRequest(c, "unknown message type: "+msg.Type)
			return
		}
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, result)
}
