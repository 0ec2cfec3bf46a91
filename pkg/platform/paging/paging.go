// Package paging clamps list pagination parameters.
package paging

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Clamp returns a limit in [1, MaxLimit] (DefaultLimit when unset) and a
// non-negative offset.
func Clamp(limit, offset int) (int, int) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
