package program

import (
	"github.com/leaseline/leaseline/internal/program/repository"
	"github.com/leaseline/leaseline/internal/program/service"
	"go.uber.org/fx"
)

var Module = fx.Module("program.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
