package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/quackscience/copilot-extension-duckdb/internal/middleware"
)

type RouterDeps struct {
	Agent    *AgentHandler
	Verifier middleware.SignatureVerifier
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/", deps.Agent.Greeting)
	api.POST("/", middleware.PayloadSignature(deps.Verifier), deps.Agent.Chat)
}
