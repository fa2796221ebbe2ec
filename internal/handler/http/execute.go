package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sairamarava/CodeTogether/internal/service"
)

// ExecuteHandler forwards code runs to the sandbox service.
type ExecuteHandler struct {
	execution *service.ExecutionService
}

func NewExecuteHandler(execution *service.ExecutionService) *ExecuteHandler {
	if execution == nil {
		panic("ExecutionService cannot be nil for ExecuteHandler")
	}
	return &ExecuteHandler{execution: execution}
}

type executeRequest struct {
	RoomID   string `json:"roomId" binding:"required"`
	Language string `json:"language" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Stdin    string `json:"stdin"`
}

// Execute handles POST /api/execute.
func (h *ExecuteHandler) Execute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrValidation)
		return
	}
	result, err := h.execution.Execute(c.Request.Context(), currentUserID(c), req.RoomID, req.Language, req.Code, req.Stdin)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"result": result})
}

// Languages handles GET /api/execute/languages.
func (h *ExecuteHandler) Languages(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{"languages": h.execution.Languages()})
}
