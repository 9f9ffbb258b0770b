package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	programdomain "github.com/leaseline/leaseline/internal/program/domain"
)

type createProgramRequest struct {
	Name              string `json:"name" binding:"required"`
	DirectAddress     string `json:"direct_address" binding:"required"`
	Direction         string `json:"direction"`
	TeamID            string `json:"team_id" binding:"required"`
	PropertyID        string `json:"property_id" binding:"required"`
	FallbackProgramID string `json:"fallback_program_id"`
}

func (s *Server) handleCreateProgram(c *gin.Context) {
	var req createProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}

	program, err := s.programs.Create(c.Request.Context(), programdomain.CreateProgramRequest{
		Name:              req.Name,
		DirectAddress:     req.DirectAddress,
		Direction:         programdomain.Direction(req.Direction),
		TeamID:            req.TeamID,
		PropertyID:        req.PropertyID,
		FallbackProgramID: req.FallbackProgramID,
	})
	if err != nil {
		switch {
		case errors.Is(err, programdomain.ErrAddressTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, programdomain.ErrInvalidTenant):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, programdomain.ErrInvalidName),
			errors.Is(err, programdomain.ErrInvalidAddress),
			errors.Is(err, programdomain.ErrInvalidTeam),
			errors.Is(err, programdomain.ErrInvalidProperty),
			errors.Is(err, programdomain.ErrInvalidFallback):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		}
		return
	}
	c.JSON(http.StatusCreated, program)
}

func (s *Server) handleListPrograms(c *gin.Context) {
	programs, err := s.programs.List(c.Request.Context())
	if err != nil {
		if errors.Is(err, programdomain.ErrInvalidTenant) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"programs": programs})
}
