// Package abi stamps the allocator's on-disk/in-memory layout version and
// lets an embedding host (such as a larger language runtime) check
// compatibility before linking against it.
package abi

import "github.com/Masterminds/semver/v3"

// version is the allocator's ABI version: the header layout and chain
// discipline it implements. It changes only when one of those changes in a
// way that breaks a host compiled against a previous layout.
const version = "1.0.0"

// Version returns the allocator's ABI version string.
func Version() string {
	return version
}

// CompatibleWith reports whether the allocator's ABI version satisfies the
// given semver constraint (e.g. "^1.0.0", ">=1.0.0, <2.0.0"). An invalid
// constraint is treated as incompatible.
func CompatibleWith(constraint string) bool {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}

	return c.Check(v)
}
