package access

import (
	"path"
	"strings"
)

// Category is the access requirement of a path.
type Category int

const (
	// Public paths have no restriction.
	Public Category = iota
	// Protected paths require any authenticated identity.
	Protected
	// RoleScoped paths require an identity whose role matches the leading segment.
	RoleScoped
	// AuthOnly paths must not be visited once authenticated (login, register).
	AuthOnly
)

func (c Category) String() string {
	switch c {
	case Protected:
		return "protected"
	case RoleScoped:
		return "role-scoped"
	case AuthOnly:
		return "auth-only"
	default:
		return "public"
	}
}

// LoginPath is the login surface every failed check redirects to.
const LoginPath = "/login"

// Shared prefixes reachable by every authenticated role despite being role-scoped.
var sharedPrefixes = []string{"/profile", "/settings"}

var routeTable = []struct {
	prefix   string
	category Category
}{
	{LoginPath, AuthOnly},
	{"/register", AuthOnly},
	{"/forgot-password", AuthOnly},
	{"/reset-password", AuthOnly},

	{"/admin", RoleScoped},
	{"/instructor", RoleScoped},
	{"/student", RoleScoped},
	{"/registrar", RoleScoped},
	{"/sysAdmin", RoleScoped},
	{"/profile", RoleScoped},
	{"/settings", RoleScoped},

	{"/dashboard", Protected},
	{"/notifications", Protected},
}

// Classify maps a path to its category. It depends on nothing but the path.
// Prefixes match whole segments: "/student/courses" is role-scoped, "/students" is public.
func Classify(target string) Category {
	p := normalize(target)
	for _, r := range routeTable {
		if hasSegmentPrefix(p, r.prefix) {
			return r.category
		}
	}
	return Public
}

// LeadingSegment returns the first path segment, e.g. "instructor" for "/instructor/messages".
func LeadingSegment(target string) string {
	p := strings.TrimPrefix(normalize(target), "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return p
}

func isShared(target string) bool {
	p := normalize(target)
	for _, prefix := range sharedPrefixes {
		if hasSegmentPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func hasSegmentPrefix(p, prefix string) bool {
	if !strings.HasPrefix(p, prefix) {
		return false
	}
	return len(p) == len(prefix) || p[len(prefix)] == '/'
}

// normalize strips query and fragment and cleans dot segments, so
// "/student/../admin" classifies as "/admin".
func normalize(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return path.Clean("/" + p)
}
