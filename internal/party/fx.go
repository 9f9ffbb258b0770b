package party

import (
	"github.com/leaseline/leaseline/internal/party/repository"
	"github.com/leaseline/leaseline/internal/party/service"
	"go.uber.org/fx"
)

var Module = fx.Module("party.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
