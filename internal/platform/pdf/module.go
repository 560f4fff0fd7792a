package pdf

import "go.uber.org/fx"

var Module = fx.Options(
	fx.Provide(New),
	fx.Provide(func(r *MarotoRenderer) Renderer { return r }),
)
