package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseline/leaseline/internal/clock"
	"github.com/leaseline/leaseline/internal/comm/domain"
	pkgdb "github.com/leaseline/leaseline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("comm.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (*domain.Communication, bool, error) {
	if req.TenantID == 0 {
		return nil, false, domain.ErrInvalidTenant
	}
	if !req.Channel.Valid() {
		return nil, false, domain.ErrInvalidChannel
	}
	if req.MessageID == "" || req.ThreadID == "" {
		return nil, false, domain.ErrInvalidMessage
	}

	now := s.clock.Now()
	comm := domain.Communication{
		ID:                            s.genID.Generate(),
		TenantID:                      req.TenantID,
		ThreadID:                      req.ThreadID,
		Type:                          req.Channel,
		Direction:                     domain.DirectionIn,
		MessageID:                     req.MessageID,
		PartyIDs:                      datatypes.NewJSONSlice(req.PartyIDs),
		PersonIDs:                     datatypes.NewJSONSlice(req.PersonIDs),
		TeamIDs:                       datatypes.NewJSONSlice(req.TeamIDs),
		TeamPropertyProgramID:         req.TeamPropertyProgramID,
		FallbackTeamPropertyProgramID: req.FallbackTeamPropertyProgramID,
		Message:                       req.Message,
		Unread:                        true,
		CreatedAt:                     now,
		UpdatedAt:                     now,
	}
	if len(comm.Message) == 0 {
		comm.Message = datatypes.JSON([]byte("{}"))
	}

	if err := s.repo.Insert(ctx, s.db, &comm); err != nil {
		if !pkgdb.IsDuplicateKeyErr(err) {
			return nil, false, err
		}
		existing, findErr := s.repo.FindByMessageID(ctx, s.db, req.TenantID, req.MessageID)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("duplicate communication vanished: tenant=%s message=%s", req.TenantID, req.MessageID)
		}
		s.log.Debug("communication already recorded",
			zap.String("tenant_id", req.TenantID.String()),
			zap.String("message_id", req.MessageID),
		)
		return existing, false, nil
	}
	return &comm, true, nil
}

func (s *Service) RecordSpam(ctx context.Context, tenantID snowflake.ID, messageID, fromAddress string, channel domain.Channel, message datatypes.JSON) error {
	if tenantID == 0 {
		return domain.ErrInvalidTenant
	}
	if !channel.Valid() {
		return domain.ErrInvalidChannel
	}
	if messageID == "" {
		return domain.ErrInvalidMessage
	}
	if len(message) == 0 {
		message = datatypes.JSON([]byte("{}"))
	}
	record := domain.SpamRecord{
		ID:          s.genID.Generate(),
		TenantID:    tenantID,
		MessageID:   messageID,
		FromAddress: fromAddress,
		Type:        channel,
		Message:     message,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.InsertSpamRecord(ctx, s.db, &record); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			s.log.Debug("spam already recorded",
				zap.String("tenant_id", tenantID.String()),
				zap.String("message_id", messageID),
			)
			return nil
		}
		return err
	}
	return nil
}

func (s *Service) Find(ctx context.Context, tenantID snowflake.ID, messageID string) (*domain.Communication, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}
	return s.repo.FindByMessageID(ctx, s.db, tenantID, messageID)
}

func (s *Service) ListThread(ctx context.Context, tenantID snowflake.ID, threadID string) ([]domain.Communication, error) {
	if tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}
	return s.repo.ListByThread(ctx, s.db, tenantID, threadID)
}
