package comm

import (
	"github.com/leaseline/leaseline/internal/comm/repository"
	"github.com/leaseline/leaseline/internal/comm/service"
	"go.uber.org/fx"
)

var Module = fx.Module("comm.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
