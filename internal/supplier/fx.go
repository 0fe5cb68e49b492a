package supplier

import (
	"github.com/smallbiznis/eshop/internal/supplier/domain"
	"github.com/smallbiznis/eshop/internal/supplier/repository"
	"github.com/smallbiznis/eshop/internal/supplier/service"
	"go.uber.org/fx"
)

var Module = fx.Module("supplier.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(s *service.Service) domain.Service { return s }),
	fx.Provide(func(s *service.Service) domain.Resolver { return s }),
)
