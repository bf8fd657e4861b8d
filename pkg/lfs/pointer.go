package lfs

import (
	"path"
	"regexp"
)

// HashAlgorithmSHA256 is the hash algorithm used for Git LFS object ids.
const HashAlgorithmSHA256 = "sha256"

var oidPattern = regexp.MustCompile(`^[a-f\d]{64}$`)

// IsValid checks if the pointer has a valid structure.
// It doesn't check if the pointed-to-content exists.
func (p Pointer) IsValid() bool {
	if len(p.Oid) != 64 {
		return false
	}
	if !oidPattern.MatchString(p.Oid) {
		return false
	}
	if p.Size < 0 {
		return false
	}
	return true
}

// RelativePath returns the relative storage path of the pointer.
// https://github.com/git-lfs/git-lfs/blob/main/docs/spec.md#intercepting-git
func (p Pointer) RelativePath() string {
	return RelativeObjectPath(p.Oid)
}

// RelativeObjectPath returns the relative storage path of an object id,
// sharded by the first two oid byte pairs like Git LFS does.
func RelativeObjectPath(oid string) string {
	if len(oid) < 5 {
		return oid
	}

	return path.Join(oid[0:2], oid[2:4], oid)
}
