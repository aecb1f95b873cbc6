package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CommandRequest is the body of POST /api/command.
type CommandRequest struct {
	Command  string `json:"command"`
	Calendar string `json:"calendar,omitempty"`
}

// CommandResponse carries the agent's reply.
type CommandResponse struct {
	Reply string `json:"reply"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Uptime:    time.Since(s.startTime).String(),
		},
	})
}

func (s *Server) handleCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   "invalid request body: " + err.Error(),
		})
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   "command is required",
		})
		return
	}

	reply, err := s.agent.Process(c.Request.Context(), req.Command, req.Calendar)
	if err != nil {
		s.logger.Error("server: command failed: %v", err)
		c.JSON(http.StatusInternalServerError, APIResponse{
			Success: false,
			Error:   "处理指令时出现错误: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    CommandResponse{Reply: reply},
	})
}

func (s *Server) handleCalendars(c *gin.Context) {
	names, err := s.agent.Calendars(c.Request.Context())
	if err != nil {
		s.logger.Error("server: list calendars failed: %v", err)
		c.JSON(http.StatusInternalServerError, APIResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    gin.H{"calendars": names},
	})
}
