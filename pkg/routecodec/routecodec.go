// Package routecodec implements the path-embedded backend addressing scheme.
//
// A request to /(http://example.com:21025)/api/version addresses the inner
// endpoint /api/version on the backend http://example.com:21025. When an
// operator pins a fixed backend, the scheme is disabled and the whole
// request path is the inner endpoint.
package routecodec

import (
	"regexp"
	"strings"
)

// OfficialOrigin is the canonical public backend.
const OfficialOrigin = "https://screeps.com"

// Route is the decoded addressing information for one request.
type Route struct {
	// Backend is the target origin, no trailing slash.
	Backend string
	// Inner is the endpoint on the backend, always starting with "/".
	Inner string
}

// Official reports whether the route targets the canonical public backend.
func (r Route) Official() bool {
	return strings.EqualFold(r.Backend, OfficialOrigin)
}

var pathPattern = regexp.MustCompile(`^/\(([^)]+)\)(/.*)?$`)

// Codec decodes request paths into routes and encodes backend origins into
// path segments. The zero value is invalid; use New.
type Codec struct {
	override string
}

// New returns a codec. A non-empty override pins every request to that
// backend and disables the embedded-address form.
func New(override string) *Codec {
	return &Codec{override: strings.TrimRight(override, "/")}
}

// Override reports whether the codec runs in fixed-backend mode.
func (c *Codec) Override() bool {
	return c.override != ""
}

// Decode resolves a request path to a route. ok is false when the path
// matches neither form; callers must treat that as unroutable rather than
// forwarding anywhere.
func (c *Codec) Decode(requestPath string) (Route, bool) {
	if c.override != "" {
		return Route{Backend: c.override, Inner: requestPath}, true
	}

	m := pathPattern.FindStringSubmatch(requestPath)
	if m == nil {
		return Route{}, false
	}

	inner := m[2]
	if inner == "" {
		inner = "/"
	}

	// Some HTTP stacks collapse duplicate slashes during path
	// normalization, turning http:// into http:/ inside the segment.
	origin := m[1]
	if i := strings.Index(origin, ":/"); i >= 0 && !strings.Contains(origin, "://") {
		origin = origin[:i] + "://" + origin[i+2:]
	}

	return Route{Backend: strings.TrimRight(origin, "/"), Inner: inner}, true
}

// Encode builds the local path segment addressing the given backend, the
// inverse of Decode for embedded mode. Links generated into rewritten pages
// are Encode(origin) + innerPath. In override mode the segment is empty:
// local paths map 1:1 onto backend paths.
func (c *Codec) Encode(origin string) string {
	if c.override != "" {
		return ""
	}
	return "/(" + strings.TrimRight(origin, "/") + ")"
}
