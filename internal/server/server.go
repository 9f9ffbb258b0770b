package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	commdomain "github.com/leaseline/leaseline/internal/comm/domain"
	"github.com/leaseline/leaseline/internal/config"
	persondomain "github.com/leaseline/leaseline/internal/person/domain"
	programdomain "github.com/leaseline/leaseline/internal/program/domain"
	queuedomain "github.com/leaseline/leaseline/internal/queue/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config   config.Config
	Log      *zap.Logger
	Queue    queuedomain.Service
	Programs programdomain.Service
	Comms    commdomain.Service
	Persons  persondomain.Service
}

type Server struct {
	cfg      config.Config
	log      *zap.Logger
	queue    queuedomain.Service
	programs programdomain.Service
	comms    commdomain.Service
	persons  persondomain.Service

	engine *gin.Engine
	http   *http.Server
}

func New(p Params) *Server {
	if p.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      p.Config,
		log:      p.Log.Named("http"),
		queue:    p.Queue,
		programs: p.Programs,
		comms:    p.Comms,
		persons:  p.Persons,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(s.log))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	webhooks := engine.Group("/webhooks", requireTenant())
	webhooks.POST("/sms", s.handleSMSWebhook)
	webhooks.POST("/voice", s.handleVoiceWebhook)
	webhooks.POST("/web", s.handleWebInquiryWebhook)

	v1 := engine.Group("/v1", requireTenant())
	v1.POST("/programs", s.handleCreateProgram)
	v1.GET("/programs", s.handleListPrograms)
	v1.GET("/threads/:thread_id", s.handleListThread)
	v1.POST("/spam", s.handleMarkSpam)

	s.engine = engine
	s.http = &http.Server{
		Addr:    p.Config.HTTPAddr,
		Handler: engine,
	}
	return s
}

// Engine exposes the router for handler tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Start() {
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func registerHooks(lc fx.Lifecycle, srv *Server) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			srv.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Stop(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(New),
	fx.Invoke(registerHooks),
)
