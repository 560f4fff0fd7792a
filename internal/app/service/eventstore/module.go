package eventstore

import "go.uber.org/fx"

var Module = fx.Options(
	fx.Provide(New),
	fx.Provide(func(s *Service) Store { return s }),
)
