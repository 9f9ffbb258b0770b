package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	persondomain "github.com/leaseline/leaseline/internal/person/domain"
)

type markSpamRequest struct {
	Type  string `json:"type" binding:"required"`
	Value string `json:"value" binding:"required"`
	Spam  *bool  `json:"spam" binding:"required"`
}

// handleMarkSpam flags or clears an originator address on the blacklist.
// Incoming messages from a flagged address stop producing communications on
// the next delivery.
func (s *Server) handleMarkSpam(c *gin.Context) {
	var req markSpamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}

	contactType := persondomain.ContactType(req.Type)
	if contactType != persondomain.ContactPhone && contactType != persondomain.ContactEmail {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_contact_type"})
		return
	}

	if err := s.persons.MarkSpam(c.Request.Context(), contactType, req.Value, *req.Spam); err != nil {
		switch {
		case errors.Is(err, persondomain.ErrInvalidTenant),
			errors.Is(err, persondomain.ErrInvalidContact):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
