package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseline/leaseline/internal/address"
	"github.com/leaseline/leaseline/internal/cache"
	"github.com/leaseline/leaseline/internal/clock"
	"github.com/leaseline/leaseline/internal/config"
	"github.com/leaseline/leaseline/internal/phonenumber"
	"github.com/leaseline/leaseline/internal/program/domain"
	"github.com/leaseline/leaseline/internal/tenantctx"
	pkgdb "github.com/leaseline/leaseline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	IngestCfg *config.IngestConfigHolder
	Numbers   phonenumber.Resolver
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	ingestCfg  *config.IngestConfigHolder
	numbers    phonenumber.Resolver
	routeCache cache.Cache[string, domain.RouteResolution]
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("program.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		ingestCfg:  p.IngestCfg,
		numbers:    p.Numbers,
		routeCache: cache.NewTTLCache[string, domain.RouteResolution](),
	}
}

func (s *Service) Resolve(ctx context.Context, tenantID snowflake.ID, destination string) (domain.RouteResolution, error) {
	if tenantID == 0 {
		return domain.RouteResolution{}, domain.ErrInvalidTenant
	}
	destination = address.Normalize(destination)
	if destination == "" {
		return domain.RouteResolution{}, domain.ErrRouteRejected
	}

	key := tenantID.String() + "|" + destination
	if resolution, ok := s.routeCache.Get(key); ok {
		return resolution, nil
	}

	program, err := s.repo.FindByAddress(ctx, s.db, tenantID, destination)
	if err != nil {
		return domain.RouteResolution{}, err
	}
	if program == nil {
		// unknown destination: permanent, retry cannot change the outcome
		return domain.RouteResolution{}, domain.ErrRouteRejected
	}

	now := s.clock.Now()
	if program.ActiveAt(now) {
		resolution := domain.RouteResolution{Program: *program}
		s.cacheResolution(key, resolution)
		return resolution, nil
	}

	resolution, err := s.resolveFallback(ctx, tenantID, program, now)
	if err != nil {
		return domain.RouteResolution{}, err
	}
	s.cacheResolution(key, resolution)
	return resolution, nil
}

// resolveFallback follows exactly one hop. A fallback that is itself ended,
// or missing, rejects the route permanently.
func (s *Service) resolveFallback(ctx context.Context, tenantID snowflake.ID, ended *domain.Program, now time.Time) (domain.RouteResolution, error) {
	if ended.FallbackProgramID == nil {
		s.log.Info("program ended with no fallback",
			zap.String("tenant_id", tenantID.String()),
			zap.String("program_id", ended.ID.String()),
		)
		return domain.RouteResolution{}, domain.ErrRouteRejected
	}

	fallback, err := s.repo.FindByID(ctx, s.db, tenantID, *ended.FallbackProgramID)
	if err != nil {
		return domain.RouteResolution{}, err
	}
	if fallback == nil || !fallback.ActiveAt(now) {
		s.log.Info("fallback program missing or ended",
			zap.String("tenant_id", tenantID.String()),
			zap.String("program_id", ended.ID.String()),
		)
		return domain.RouteResolution{}, domain.ErrRouteRejected
	}

	return domain.RouteResolution{
		Program:         *fallback,
		FallbackUsed:    true,
		OriginalProgram: ended,
	}, nil
}

func (s *Service) cacheResolution(key string, resolution domain.RouteResolution) {
	s.routeCache.Set(key, resolution, s.ingestCfg.Current().RouteCacheTTL)
}

func (s *Service) Create(ctx context.Context, req domain.CreateProgramRequest) (domain.Program, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return domain.Program{}, domain.ErrInvalidTenant
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Program{}, domain.ErrInvalidName
	}

	directAddress := address.Normalize(req.DirectAddress)
	if directAddress == "" {
		return domain.Program{}, domain.ErrInvalidAddress
	}
	// administrative-time validation only; the hot path never calls the
	// number resolver
	if address.LooksLikePhone(directAddress) {
		routable, err := s.numbers.IsRoutableNumber(ctx, tenantID, directAddress)
		if err != nil {
			return domain.Program{}, err
		}
		if !routable {
			return domain.Program{}, domain.ErrInvalidAddress
		}
	}

	teamID, err := snowflake.ParseString(strings.TrimSpace(req.TeamID))
	if err != nil || teamID == 0 {
		return domain.Program{}, domain.ErrInvalidTeam
	}
	propertyID, err := snowflake.ParseString(strings.TrimSpace(req.PropertyID))
	if err != nil || propertyID == 0 {
		return domain.Program{}, domain.ErrInvalidProperty
	}

	direction := req.Direction
	if direction == "" {
		direction = domain.DirectionIn
	}

	program := domain.Program{
		ID:            s.genID.Generate(),
		TenantID:      tenantID,
		Name:          name,
		DirectAddress: directAddress,
		Direction:     direction,
		TeamID:        teamID,
		PropertyID:    propertyID,
		CreatedAt:     s.clock.Now(),
		UpdatedAt:     s.clock.Now(),
	}

	if raw := strings.TrimSpace(req.FallbackProgramID); raw != "" {
		fallbackID, err := snowflake.ParseString(raw)
		if err != nil || fallbackID == 0 {
			return domain.Program{}, domain.ErrInvalidFallback
		}
		fallback, err := s.repo.FindByID(ctx, s.db, tenantID, fallbackID)
		if err != nil {
			return domain.Program{}, err
		}
		if fallback == nil {
			return domain.Program{}, domain.ErrInvalidFallback
		}
		program.FallbackProgramID = &fallbackID
	}

	if err := s.repo.Insert(ctx, s.db, &program); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return domain.Program{}, domain.ErrAddressTaken
		}
		return domain.Program{}, err
	}

	return program, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Program, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return nil, domain.ErrInvalidTenant
	}
	return s.repo.List(ctx, s.db, tenantID)
}
