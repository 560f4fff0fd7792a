package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fuelflow/fuelflow/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestNew_ReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
currency: gbp
stripe:
  webhook_secrets: ["whsec_old", "whsec_new"]
  signature_tolerance: 10s
fuel_prices:
  - fuel_type: diesel
    unit_price: 160
`), 0o600))

	t.Setenv("APP_CONFIG_FILE", file)
	t.Setenv("APP_SESSION_JWT_SECRET", "from-env")

	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, "GBP", cfg.Currency)
	require.Equal(t, []string{"whsec_old", "whsec_new"}, cfg.Stripe.WebhookSecrets)
	require.Equal(t, 10*time.Second, cfg.Stripe.SignatureTolerance)
	require.Equal(t, "from-env", cfg.Session.JWTSecret)
	require.Equal(t, 8888, cfg.Server.Port)

	price, err := cfg.GetFuelPrice(types.FuelTypeDiesel)
	require.NoError(t, err)
	require.EqualValues(t, 160, price.UnitPrice)

	_, err = cfg.GetFuelPrice(types.FuelTypePetrol)
	require.Error(t, err)
}
