// Package version tracks this module's release version, separately from
// the wire protocol version NanoRPC's Header carries. Two client and
// server builds can speak the same wire protocol while being different
// releases; this package is for diagnostics and compatibility logging,
// never consulted by Dispatch itself.
package version

import "github.com/blang/semver"

// Release is this build's semantic version.
var Release = semver.MustParse("1.0.0")

// Compatible reports whether a peer advertising other is expected to
// interoperate with Release, following semver's convention that a major
// version bump is the only breaking change.
func Compatible(other semver.Version) bool {
	return other.Major == Release.Major
}
