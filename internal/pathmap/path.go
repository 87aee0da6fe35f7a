// Package pathmap implements the concurrent object routing table of
// spec §4.3: a path-to-receiver index with weak references, deferred
// installation, anonymous path allocation and agency-driven sub-path
// resolution.
package pathmap

import (
	"strings"

	"github.com/carp-rpc/carp/internal/agency"
)

// Path is an ordered sequence of non-empty segments; the empty Path
// denotes the root binding (spec §3, "object-routing entities").
type Path []string

// ParsePath splits a "/"-joined path into segments.
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	return Path(strings.Split(s, "/"))
}

// String renders the path in "/"-joined form.
func (p Path) String() string {
	return strings.Join(p, "/")
}

func (p Path) toAgency() agency.Path {
	return agency.Path(p)
}

func fromAgency(p agency.Path) Path {
	return Path(p)
}

func (p Path) clone() Path {
	return append(Path(nil), p...)
}
