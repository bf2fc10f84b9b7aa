package service

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// ClampPage normalizes client paging input: offset is floored at 0, a
// non-positive limit becomes DefaultPageLimit and larger ones are capped at
// MaxPageLimit.
func ClampPage(offset, limit int) (int, int) {
	offset = max(0, offset)
	if limit <= 0 {
		return offset, DefaultPageLimit
	}
	return offset, min(limit, MaxPageLimit)
}
