package ban

import (
	"net/netip"

	mapset "github.com/deckarep/golang-set/v2"
)

// Whitelist is the one-method capability Engine depends on to exempt
// addresses from all ban checks, injected at construction rather than
// reached via a global lookup.
type Whitelist interface {
	Check(addr netip.Addr) bool
}

// noWhitelist always returns false; it is the default when New is called
// with a nil Whitelist.
type noWhitelist struct{}

func (noWhitelist) Check(netip.Addr) bool { return false }

// StaticWhitelist is a concrete, mutable Whitelist backed by a set, so
// Engine is usable out of the box without every caller writing their own
// capability implementation.
type StaticWhitelist struct {
	set mapset.Set[netip.Addr]
}

// NewStaticWhitelist creates a StaticWhitelist containing addrs.
func NewStaticWhitelist(addrs ...netip.Addr) *StaticWhitelist {
	return &StaticWhitelist{set: mapset.NewSet(addrs...)}
}

func (w *StaticWhitelist) Check(addr netip.Addr) bool { return w.set.Contains(addr) }

// Add admits addr.
func (w *StaticWhitelist) Add(addr netip.Addr) { w.set.Add(addr) }

// Remove revokes addr's exemption.
func (w *StaticWhitelist) Remove(addr netip.Addr) { w.set.Remove(addr) }
