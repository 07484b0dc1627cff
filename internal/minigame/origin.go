package minigame

import "strings"

// DefaultOrigins are the origins a packaged bundle can legitimately post from.
// The empty origin is always accepted in addition to these.
var DefaultOrigins = []string{
	"file://",
	"http://localhost:34115",
	"http://localhost:8080",
}

// AllowList is an immutable set of trusted message origins.
type AllowList struct {
	origins []string
}

// NewAllowList returns an allow-list of the given origins. Blank entries are
// skipped.
func NewAllowList(origins ...string) AllowList {
	list := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			list = append(list, o)
		}
	}
	return AllowList{origins: list}
}

// Origins returns a copy of the configured origins.
func (a AllowList) Origins() []string {
	return append([]string(nil), a.origins...)
}

// Allows reports whether origin is trusted. An origin matches an entry when
// it is equal to it or extends it. Entries that do not end in a separator
// only match on a path boundary, so "http://localhost:8080" does not admit
// "http://localhost:80801" or "http://localhost:8080.evil.test".
func (a AllowList) Allows(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range a.origins {
		if origin == allowed {
			return true
		}
		rest, ok := strings.CutPrefix(origin, allowed)
		if !ok {
			continue
		}
		if strings.HasSuffix(allowed, "/") || strings.HasPrefix(rest, "/") {
			return true
		}
	}
	return false
}
