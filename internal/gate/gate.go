// Package gate decides, for each page request, whether the requester may
// proceed, based on an explicit session passed in by the caller. It is a
// pure function over (path, session) so it can be tested without HTTP.
//
// The gate is a UX-level redirect layer, not a security boundary: the role
// it sees comes from a client-held token, and every privileged read or
// write is re-checked against verified claims at the API boundary.
package gate

import (
	"strings"

	"github.com/mzajc/stocktake/internal/model"
)

// Session is the evidence the gate judges: whether an authentication
// marker is present, and the role claimed for it.
type Session struct {
	Authenticated bool
	Role          string
}

// Action is the gate's verdict for a request.
type Action int

const (
	// Allow lets the request through.
	Allow Action = iota
	// RedirectLogin sends the requester to the login page.
	RedirectLogin
	// RedirectHome sends the requester to their role's home page.
	RedirectHome
)

// Decision is the gate's verdict plus the target for redirects.
type Decision struct {
	Action Action
	Target string
}

// Route partitions. The public set matches exactly; the role sets match
// by prefix. Paths in no set fall through to "allowed once authenticated",
// regardless of role.
var publicPaths = map[string]bool{
	"/":         true,
	"/login":    true,
	"/register": true,
	"/setup":    true,
}

const (
	adminPrefix   = "/admin/"
	auditorPrefix = "/auditor/"

	// LoginPath is where unauthenticated requests are sent.
	LoginPath = "/login"
	// AdminHome and AuditorHome are the per-role landing pages.
	AdminHome   = "/admin/dashboard"
	AuditorHome = "/auditor/dashboard"
)

// HomeFor returns the landing page for a role.
func HomeFor(role string) string {
	if role == model.RoleAdmin {
		return AdminHome
	}
	return AuditorHome
}

// Evaluate returns the gate's decision for a request path and session.
func Evaluate(path string, s Session) Decision {
	if publicPaths[path] {
		return Decision{Action: Allow}
	}

	if !s.Authenticated {
		return Decision{Action: RedirectLogin, Target: LoginPath}
	}

	if strings.HasPrefix(path, adminPrefix) && s.Role != model.RoleAdmin {
		return Decision{Action: RedirectHome, Target: HomeFor(s.Role)}
	}
	if strings.HasPrefix(path, auditorPrefix) && s.Role != model.RoleAuditor {
		return Decision{Action: RedirectHome, Target: HomeFor(s.Role)}
	}

	// Authenticated and outside both role partitions: allowed.
	return Decision{Action: Allow}
}
