package request

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 50
	// MaxLimit caps page size; pods syncing access lists use the dedicated
	// sync endpoint, so admin pages never need to be huge.
	MaxLimit = 200
)

// Pagination holds the parsed limit and opaque cursor for list endpoints.
type Pagination struct {
	Limit  int
	Cursor string
}

// ParsePagination reads limit and cursor query parameters. Absent, zero,
// or malformed limits fall back to the default; oversized ones are clamped.
func ParsePagination(r *http.Request) Pagination {
	q := r.URL.Query()
	p := Pagination{Limit: DefaultLimit, Cursor: q.Get("cursor")}

	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.Limit = min(n, MaxLimit)
		}
	}
	return p
}
