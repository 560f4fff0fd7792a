package payment

import "go.uber.org/fx"

var Module = fx.Options(
	fx.Provide(New),
	fx.Provide(func(s *Service) Ledger { return s }),
)
