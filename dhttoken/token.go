package dhttoken

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/binary"
	"net/netip"
	"time"
)

// DefaultTokenBytes is N, the truncated length of issued tokens.
const DefaultTokenBytes = 4

// Authority issues and validates DHT security tokens over a rotating
// secret, truncating the underlying SHA-1 digest to Bytes bytes.
type Authority struct {
	secret *RotatingSecret
	bytes  int
}

// NewAuthority wraps secret; bytes must be in [4, 8] per spec §3.
func NewAuthority(secret *RotatingSecret, bytes int) *Authority {
	if bytes < 4 {
		bytes = 4
	}
	if bytes > 8 {
		bytes = 8
	}
	return &Authority{secret: secret, bytes: bytes}
}

// Issue returns a token binding addr/port to the current secret.
func (a *Authority) Issue(addr netip.Addr, port uint16) []byte {
	current, _ := a.secret.slots()
	return truncatedDigest(addr, port, current[:], a.bytes)
}

// Validate reports whether tok matches a token issued for addr/port under
// either the current or previous secret, so a token survives exactly one
// rotation boundary. Comparisons are constant-time to avoid leaking which
// byte first diverged.
func (a *Authority) Validate(tok []byte, addr netip.Addr, port uint16) bool {
	if len(tok) != a.bytes {
		return false
	}
	current, previous := a.secret.slots()
	wantCurrent := truncatedDigest(addr, port, current[:], a.bytes)
	wantPrevious := truncatedDigest(addr, port, previous[:], a.bytes)
	okCurrent := subtle.ConstantTimeCompare(tok, wantCurrent) == 1
	okPrevious := subtle.ConstantTimeCompare(tok, wantPrevious) == 1
	return (okCurrent || okPrevious)
}

// Lifetime returns the rotation period backing this authority's secret.
func (a *Authority) Lifetime() time.Duration {
	return a.secret.Lifetime()
}

func truncatedDigest(addr netip.Addr, port uint16, secret []byte, n int) []byte {
	h := sha1.New()
	h.Write(addr.AsSlice())
	var portBuf [2]byte
	binary.BigEndian.PutUint16(portBuf[:], port)
	h.Write(portBuf[:])
	h.Write(secret)
	sum := h.Sum(nil)
	return sum[:n]
}
