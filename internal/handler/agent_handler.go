package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quackscience/copilot-extension-duckdb/internal/ai"
	"github.com/quackscience/copilot-extension-duckdb/internal/middleware"
	"github.com/quackscience/copilot-extension-duckdb/internal/pkg/sse"
	"github.com/quackscience/copilot-extension-duckdb/internal/service"
)

// ChatService runs one verified request against an event stream.
type ChatService interface {
	Handle(ctx context.Context, req *service.Request, out service.EventWriter)
}

type AgentHandler struct {
	service ChatService
}

func NewAgentHandler(svc ChatService) *AgentHandler {
	return &AgentHandler{service: svc}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type agentRequest struct {
	Messages []chatMessage `json:"messages"`
}

// Chat serves the agent endpoint. The signature middleware has already
// verified the payload; from here every outcome travels in-band on the
// committed stream.
func (h *AgentHandler) Chat(c *gin.Context) {
	value, _ := c.Get(middleware.ContextPayloadKey)
	payload, _ := value.([]byte)
	var req agentRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.String(http.StatusBadRequest, "invalid request payload")
		return
	}
	messages := make([]ai.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, ai.Message{Role: msg.Role, Content: msg.Content})
	}

	out := sse.NewWriter(c.Writer)
	out.WriteHeaders()
	h.service.Handle(c.Request.Context(), &service.Request{
		Token:    c.GetHeader(middleware.HeaderToken),
		Messages: messages,
	}, out)
}

func (h *AgentHandler) Greeting(c *gin.Context) {
	c.String(http.StatusOK, "DuckDB Copilot agent is running. POST Copilot chat payloads to this endpoint.")
}
