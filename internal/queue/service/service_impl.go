package service

import (
	"context"
	"encoding/json"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseline/leaseline/internal/address"
	"github.com/leaseline/leaseline/internal/clock"
	"github.com/leaseline/leaseline/internal/observability/metrics"
	"github.com/leaseline/leaseline/internal/queue/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *metrics.Metrics
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("queue.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Enqueue(ctx context.Context, req domain.EnqueueRequest) (*domain.InboundEvent, bool, error) {
	if req.TenantID == 0 {
		return nil, false, domain.ErrInvalidTenant
	}
	if !req.Channel.Valid() {
		return nil, false, domain.ErrInvalidChannel
	}
	if req.MessageID == "" {
		return nil, false, domain.ErrInvalidMessage
	}
	req.Payload.From = address.Normalize(req.Payload.From)
	req.Payload.To = address.Normalize(req.Payload.To)
	if req.Payload.From == "" || req.Payload.To == "" {
		return nil, false, domain.ErrInvalidPayload
	}

	raw, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, false, err
	}

	now := s.clock.Now()
	event := domain.InboundEvent{
		ID:          s.genID.Generate(),
		TenantID:    req.TenantID,
		MessageID:   req.MessageID,
		Channel:     req.Channel,
		Payload:     datatypes.JSON(raw),
		Status:      domain.StatusPending,
		AvailableAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	inserted, err := s.repo.Enqueue(ctx, s.db, &event)
	if err != nil {
		return nil, false, err
	}
	if !inserted {
		s.log.Debug("inbound event redelivered",
			zap.String("tenant_id", req.TenantID.String()),
			zap.String("message_id", req.MessageID),
		)
		return &event, false, nil
	}
	s.metrics.EventsEnqueued.WithLabelValues(string(req.Channel)).Inc()
	return &event, true, nil
}
