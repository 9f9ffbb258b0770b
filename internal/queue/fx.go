package queue

import (
	"github.com/leaseline/leaseline/internal/queue/repository"
	"github.com/leaseline/leaseline/internal/queue/service"
	"go.uber.org/fx"
)

var Module = fx.Module("queue",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
