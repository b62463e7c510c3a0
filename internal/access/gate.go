package access

import (
	"github.com/ingatatech/e-learning-sub003/internal/auth"
)

// Action is what the environment must do with a navigation.
type Action string

const (
	ActionAllow    Action = "allow"
	ActionRedirect Action = "redirect"
)

// Decision is the output of the gate. The page renderer executes it;
// the gate itself has no side effects.
type Decision struct {
	Action Action `json:"action"`
	Target string `json:"target,omitempty"`

	// Reason is optional and intended for internal logs/metrics.
	Reason string `json:"reason,omitempty"`
}

func Allow(reason string) Decision {
	return Decision{Action: ActionAllow, Reason: reason}
}

func RedirectTo(target, reason string) Decision {
	return Decision{Action: ActionRedirect, Target: target, Reason: reason}
}

func (d Decision) Allowed() bool { return d.Action == ActionAllow }

// Decide maps (path, identity) to a decision. identity is nil when unauthenticated.
// Rules are evaluated in order and the first match wins. Decide is a pure
// function and is re-run on every navigation; results are never cached.
//
// An identity whose role is not one of auth.Roles is never allowed anywhere,
// with one exception: LoginPath itself is allowed so that the redirect to it
// cannot loop. Every other path redirects such an identity to LoginPath.
func Decide(path string, identity *auth.Claims) Decision {
	category := Classify(path)

	if identity != nil && !identity.Role.Valid() {
		// Unknown roles fail closed. The login page stays reachable so the
		// redirect cannot loop.
		if category == AuthOnly && normalize(path) == LoginPath {
			return Allow("invalid_role_login")
		}
		return RedirectTo(LoginPath, "invalid_role")
	}

	if category == AuthOnly && identity != nil {
		return RedirectTo(identity.Role.Home(), "already_authenticated")
	}

	if (category == Protected || category == RoleScoped) && identity == nil {
		return RedirectTo(LoginPath, "unauthenticated")
	}

	if category == RoleScoped {
		if isShared(path) {
			return Allow("shared_route")
		}
		if LeadingSegment(path) != string(identity.Role) {
			return RedirectTo(identity.Role.Home(), "role_mismatch")
		}
		return Allow("role_match")
	}

	return Allow(category.String())
}
