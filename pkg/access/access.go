package access

import (
	"encoding"
	"errors"
)

// Permission is a granted permission over a repository namespace or a single
// object within it.
type Permission int // nolint: revive

const (
	// NoPermission does not allow any access.
	NoPermission Permission = iota

	// ReadMetaPermission allows reading object metadata, e.g. verifying that
	// an object exists with a given size.
	ReadMetaPermission

	// ReadPermission allows downloading object content.
	ReadPermission

	// WritePermission allows uploading object content.
	WritePermission
)

// String returns the string representation of the permission.
func (p Permission) String() string {
	switch p {
	case NoPermission:
		return "none"
	case ReadMetaPermission:
		return "read-meta"
	case ReadPermission:
		return "read"
	case WritePermission:
		return "write"
	default:
		return "unknown"
	}
}

// ParsePermission parses a permission string.
func ParsePermission(s string) Permission {
	switch s {
	case "none":
		return NoPermission
	case "read-meta":
		return ReadMetaPermission
	case "read":
		return ReadPermission
	case "write":
		return WritePermission
	default:
		return Permission(-1)
	}
}

var (
	_ encoding.TextMarshaler   = Permission(0)
	_ encoding.TextUnmarshaler = (*Permission)(nil)
)

// ErrInvalidPermission is returned when an invalid permission is provided.
var ErrInvalidPermission = errors.New("invalid permission")

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Permission) UnmarshalText(text []byte) error {
	perm := ParsePermission(string(text))
	if perm < 0 {
		return ErrInvalidPermission
	}

	*p = perm

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Permission) MarshalText() (text []byte, err error) {
	return []byte(p.String()), nil
}
