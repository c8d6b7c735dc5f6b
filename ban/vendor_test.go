package ban

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckVendorRefusesForeignBlacklist(t *testing.T) {
	require.Equal(t, "connection refused", CheckVendor("LMRK", "1.0.0"))
}

func TestCheckVendorFlagsHarmfulOwnBuild(t *testing.T) {
	require.Equal(t, "harmful build, upgrade required", CheckVendor(ownVendor, "0.9.1"))
}

func TestCheckVendorAllowsEverythingElse(t *testing.T) {
	require.Equal(t, "", CheckVendor(ownVendor, "1.2.0"))
	require.Equal(t, "", CheckVendor("LIME", "5.0.0"))
}
