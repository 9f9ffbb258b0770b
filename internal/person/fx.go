package person

import (
	"github.com/leaseline/leaseline/internal/person/repository"
	"github.com/leaseline/leaseline/internal/person/service"
	"go.uber.org/fx"
)

var Module = fx.Module("person.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
