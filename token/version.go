package token

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a build identity: major.minor.patch plus an optional numeric
// build number, the unit KeyEpoch.Version and the version string a peer
// presents at handshake are compared against.
type Version struct {
	Major, Minor, Patch int
	Build               int
	HasBuild            bool
}

// ParseVersion parses "major.minor.patch" or "major.minor.patch+build".
func ParseVersion(s string) (Version, error) {
	var v Version
	base, buildPart, hasBuild := strings.Cut(s, "+")
	parts := strings.Split(base, ".")
	if len(parts) != 3 {
		return v, fmt.Errorf("token: bad version string %q", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return v, fmt.Errorf("token: bad version string %q: %w", s, err)
		}
		nums[i] = n
	}
	v.Major, v.Minor, v.Patch = nums[0], nums[1], nums[2]
	if hasBuild {
		n, err := strconv.Atoi(buildPart)
		if err != nil {
			return v, fmt.Errorf("token: bad build number %q: %w", s, err)
		}
		v.Build = n
		v.HasBuild = true
	}
	return v, nil
}

// Compare returns -1, 0, or 1 comparing v and o by major.minor.patch only;
// Build does not participate in ordering, matching the source's use of
// build purely as a gate within the SVN/GIT epoch window.
func (v Version) Compare(o Version) int {
	for _, pair := range [][2]int{{v.Major, o.Major}, {v.Minor, o.Minor}, {v.Patch, o.Patch}} {
		if pair[0] != pair[1] {
			if pair[0] < pair[1] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (v Version) String() string {
	if v.HasBuild {
		return fmt.Sprintf("%d.%d.%d+%d", v.Major, v.Minor, v.Patch, v.Build)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
