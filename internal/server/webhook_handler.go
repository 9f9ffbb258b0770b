package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	commdomain "github.com/leaseline/leaseline/internal/comm/domain"
	queuedomain "github.com/leaseline/leaseline/internal/queue/domain"
	"github.com/leaseline/leaseline/internal/tenantctx"
	"go.uber.org/zap"
)

// Provider webhook shapes. Each is flattened to the normalized queue payload
// at this boundary; nothing past the webhook handler knows provider formats.

type smsWebhook struct {
	MessageID string `json:"message_id" binding:"required"`
	From      string `json:"from" binding:"required"`
	To        string `json:"to" binding:"required"`
	Text      string `json:"text"`
}

type voiceWebhook struct {
	CallID          string `json:"call_id" binding:"required"`
	From            string `json:"from" binding:"required"`
	To              string `json:"to" binding:"required"`
	DurationSeconds int    `json:"duration_seconds"`
	RecordingURL    string `json:"recording_url"`
}

type webInquiryWebhook struct {
	InquiryID string `json:"inquiry_id" binding:"required"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	To        string `json:"to" binding:"required"`
	Message   string `json:"message"`
}

func (s *Server) handleSMSWebhook(c *gin.Context) {
	var hook smsWebhook
	if err := c.ShouldBindJSON(&hook); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}
	s.enqueue(c, commdomain.ChannelSMS, hook.MessageID, queuedomain.Payload{
		From: hook.From,
		To:   hook.To,
		Text: hook.Text,
	})
}

func (s *Server) handleVoiceWebhook(c *gin.Context) {
	var hook voiceWebhook
	if err := c.ShouldBindJSON(&hook); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}
	s.enqueue(c, commdomain.ChannelCall, hook.CallID, queuedomain.Payload{
		From: hook.From,
		To:   hook.To,
		Raw: map[string]any{
			"duration_seconds": hook.DurationSeconds,
			"recording_url":    hook.RecordingURL,
		},
	})
}

func (s *Server) handleWebInquiryWebhook(c *gin.Context) {
	var hook webInquiryWebhook
	if err := c.ShouldBindJSON(&hook); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}
	from := strings.TrimSpace(hook.Email)
	if from == "" {
		from = strings.TrimSpace(hook.Phone)
	}
	if from == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}
	s.enqueue(c, commdomain.ChannelWeb, hook.InquiryID, queuedomain.Payload{
		From:     from,
		FromName: hook.Name,
		To:       hook.To,
		Text:     hook.Message,
		Raw: map[string]any{
			"email": hook.Email,
			"phone": hook.Phone,
		},
	})
}

// enqueue answers the provider as soon as the event is durable; processing
// happens asynchronously and provider retries are driven by enqueue failure
// only.
func (s *Server) enqueue(c *gin.Context, channel commdomain.Channel, messageID string, payload queuedomain.Payload) {
	ctx := c.Request.Context()
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_tenant"})
		return
	}

	event, accepted, err := s.queue.Enqueue(ctx, queuedomain.EnqueueRequest{
		TenantID:  tenantID,
		Channel:   channel,
		MessageID: messageID,
		Payload:   payload,
	})
	if err != nil {
		switch err {
		case queuedomain.ErrInvalidTenant, queuedomain.ErrInvalidChannel,
			queuedomain.ErrInvalidMessage, queuedomain.ErrInvalidPayload:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			s.log.Error("enqueue failed",
				zap.String("message_id", messageID),
				zap.Error(err),
			)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "enqueue_failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"event_id": event.ID.String(),
		"accepted": accepted,
	})
}
