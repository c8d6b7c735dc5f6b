package ban

// CheckVendor is a pure function mapping a peer's vendor code and version
// string to a ban reason, or "" if neither list applies. It carries no
// state: the hammering detector below tracks behavior, this only tracks
// known-bad identity.
func CheckVendor(vendor, version string) string {
	if _, refused := refusedVendors[vendor]; refused {
		return "connection refused"
	}
	if vendor == ownVendor {
		if _, harmful := harmfulOwnVersions[version]; harmful {
			return "harmful build, upgrade required"
		}
	}
	return ""
}

// ownVendor is this node's own four-letter vendor code.
const ownVendor = "WARD"

// harmfulOwnVersions lists this vendor's own builds known to corrupt the
// wire protocol; their traffic is refused with an upgrade notice rather
// than silently dropped, since the operator can act on it.
var harmfulOwnVersions = map[string]struct{}{
	"0.9.1": {},
	"0.9.2": {},
}

// refusedVendors lists foreign vendor codes this node refuses outright,
// independent of version.
var refusedVendors = map[string]struct{}{
	"LMRK": {},
}
