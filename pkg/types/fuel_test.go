package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFuelType_Valid(t *testing.T) {
	require.True(t, FuelTypePetrol.Valid())
	require.True(t, FuelTypeDiesel.Valid())
	require.False(t, FuelType("kerosene").Valid())
	require.Equal(t, "Diesel", FuelTypeDiesel.Label())
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "admin@x.com", NormalizeEmail("  Admin@X.com "))
}
