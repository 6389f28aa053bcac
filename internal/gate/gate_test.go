package gate

import (
	"testing"

	"github.com/mzajc/stocktake/internal/model"
)

func TestEvaluate(t *testing.T) {
	anon := Session{}
	admin := Session{Authenticated: true, Role: model.RoleAdmin}
	auditor := Session{Authenticated: true, Role: model.RoleAuditor}

	tests := []struct {
		name    string
		path    string
		session Session
		action  Action
		target  string
	}{
		// Public paths are always allowed, marker or not.
		{"login anonymous", "/login", anon, Allow, ""},
		{"login authenticated", "/login", admin, Allow, ""},
		{"register anonymous", "/register", anon, Allow, ""},
		{"home anonymous", "/", anon, Allow, ""},
		{"setup anonymous", "/setup", anon, Allow, ""},

		// No marker on a protected path: to login.
		{"admin page anonymous", "/admin/dashboard", anon, RedirectLogin, LoginPath},
		{"auditor page anonymous", "/auditor/tasks", anon, RedirectLogin, LoginPath},

		// Wrong partition: to the session role's home.
		{"auditor on admin page", "/admin/tasks", auditor, RedirectHome, AuditorHome},
		{"admin on auditor page", "/auditor/scan", admin, RedirectHome, AdminHome},

		// Right partition: allowed.
		{"admin on admin page", "/admin/items", admin, Allow, ""},
		{"auditor on auditor page", "/auditor/history", auditor, Allow, ""},

		// Paths in no partition are allowed once authenticated,
		// regardless of role.
		{"unmatched path authenticated", "/whatever", auditor, Allow, ""},
		{"unmatched path anonymous", "/whatever", anon, RedirectLogin, LoginPath},

		// Prefix matching: "/administer" is not inside "/admin/".
		{"prefix lookalike", "/administer", auditor, Allow, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.path, tt.session)
			if d.Action != tt.action {
				t.Errorf("Evaluate(%q, %+v).Action = %v, want %v", tt.path, tt.session, d.Action, tt.action)
			}
			if d.Target != tt.target {
				t.Errorf("Evaluate(%q, %+v).Target = %q, want %q", tt.path, tt.session, d.Target, tt.target)
			}
		})
	}
}

func TestHomeFor(t *testing.T) {
	if HomeFor(model.RoleAdmin) != AdminHome {
		t.Error("expected admin home for admin role")
	}
	if HomeFor(model.RoleAuditor) != AuditorHome {
		t.Error("expected auditor home for auditor role")
	}
	// Unknown roles land on the auditor home, the less privileged surface.
	if HomeFor("unknown") != AuditorHome {
		t.Error("expected auditor home for unknown role")
	}
}
