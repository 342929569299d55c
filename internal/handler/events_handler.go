package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"skycam/edgeagent/internal/model"
	"skycam/edgeagent/internal/repository"
	"skycam/edgeagent/pkg/response"
)

// EventsHandler is the producer surface of the pending-event store: the
// application queues events here when the backend is unreachable.
type EventsHandler struct {
	events       repository.PendingEventRepository
	defaultQueue string
}

func NewEventsHandler(events repository.PendingEventRepository, defaultQueue string) *EventsHandler {
	return &EventsHandler{events: events, defaultQueue: defaultQueue}
}

type createEventRequest struct {
	ID      string          `json:"id"`
	Queue   string          `json:"queue"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}

func (h *EventsHandler) Create(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid event: "+err.Error())
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Queue == "" {
		req.Queue = h.defaultQueue
	}

	event := &model.PendingSyncEvent{
		ID:      req.ID,
		Queue:   req.Queue,
		Payload: req.Payload,
	}
	if err := h.events.Put(c.Request.Context(), event); err != nil {
		response.InternalError(c, "failed to queue event")
		return
	}
	response.Success(c, event)
}

func (h *EventsHandler) List(c *gin.Context) {
	queue := c.DefaultQuery("queue", h.defaultQueue)
	events, err := h.events.GetAll(c.Request.Context(), queue)
	if err != nil {
		response.InternalError(c, "failed to list events")
		return
	}
	response.Success(c, events)
}
