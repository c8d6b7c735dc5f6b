package dhttoken

import (
	"net/netip"
	"testing"
	"time"

	"github.com/gtknet/ward/common/mclock"
	"github.com/gtknet/ward/scheduler"
	"github.com/stretchr/testify/require"
)

func TestIssueValidateRoundTrip(t *testing.T) {
	clock := new(mclock.Simulated)
	q := scheduler.New(clock)
	secret, err := NewRotatingSecret(300*time.Second, clock, q)
	require.NoError(t, err)
	auth := NewAuthority(secret, DefaultTokenBytes)

	addr := netip.MustParseAddr("203.0.113.50")
	tok := auth.Issue(addr, 6346)
	require.Len(t, tok, DefaultTokenBytes)
	require.True(t, auth.Validate(tok, addr, 6346))
	require.False(t, auth.Validate(tok, addr, 6347))
}

// TestRotationWindow is scenario 6: a token survives exactly one rotation
// but not two.
func TestRotationWindow(t *testing.T) {
	clock := new(mclock.Simulated)
	q := scheduler.New(clock)
	secret, err := NewRotatingSecret(300*time.Second, clock, q)
	require.NoError(t, err)
	auth := NewAuthority(secret, DefaultTokenBytes)

	addr := netip.MustParseAddr("203.0.113.60")
	tok := auth.Issue(addr, 6346)

	clock.Run(310 * time.Second) // crosses the t=300 rotation
	require.True(t, auth.Validate(tok, addr, 6346))

	clock.Run(290 * time.Second) // crosses the t=600 rotation (total 600s)
	require.False(t, auth.Validate(tok, addr, 6346))
}

func TestLifetimeAccessor(t *testing.T) {
	clock := new(mclock.Simulated)
	q := scheduler.New(clock)
	secret, err := NewRotatingSecret(300*time.Second, clock, q)
	require.NoError(t, err)
	auth := NewAuthority(secret, DefaultTokenBytes)
	require.Equal(t, 300*time.Second, auth.Lifetime())
}
