package stripe

import (
	"go.uber.org/fx"

	"github.com/fuelflow/fuelflow/pkg/config"
)

func NewVerifierFromConfig(cfg *config.Config) *Verifier {
	return NewVerifier(cfg.Stripe.WebhookSecrets, cfg.Stripe.SignatureTolerance)
}

func NewClientFromConfig(cfg *config.Config) *Client {
	return NewClient(ClientOptions{
		SecretKey: cfg.Stripe.SecretKey,
		APIBase:   cfg.Stripe.APIBase,
		Timeout:   cfg.Stripe.Timeout,
	})
}

var Module = fx.Options(
	fx.Provide(NewVerifierFromConfig, NewClientFromConfig),
)
