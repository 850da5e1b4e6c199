// Package navigation decides which menu entries a session may see.
package navigation

import (
	"github.com/wolfman30/clinicdesk/internal/session"
)

// Role names the gate treats specially. They are matched exactly: the
// coarse menu looks for "admin", the permission check for "Admin".
const (
	CoarseAdminRole     = "admin"
	SuperPermissionRole = "Admin"
)

// Link is one navigation entry. An empty Permission means any logged-in
// user may see it.
type Link struct {
	Label      string `json:"label"`
	Path       string `json:"path"`
	Permission string `json:"permission,omitempty"`
}

// AdminLinks is the administrator menu.
var AdminLinks = []Link{
	{Label: "Dashboard", Path: "/admin/dashboard"},
	{Label: "Users", Path: "/admin/users", Permission: "view users"},
	{Label: "Roles", Path: "/admin/roles", Permission: "view roles"},
	{Label: "Permissions", Path: "/admin/permissions", Permission: "view permissions"},
	{Label: "Daily Report", Path: "/admin/reports/daily", Permission: "view reports"},
}

// StaffLinks is the clinical staff menu.
var StaffLinks = []Link{
	{Label: "Dashboard", Path: "/dashboard", Permission: "view dashboard"},
	{Label: "Patients", Path: "/patients", Permission: "view patients"},
	{Label: "Visits", Path: "/visits", Permission: "view visits"},
	{Label: "Lab Tests", Path: "/lab-tests", Permission: "view lab tests"},
	{Label: "Lab Results", Path: "/lab-results", Permission: "view lab results"},
	{Label: "Medications", Path: "/medications", Permission: "view medications"},
	{Label: "Appointments", Path: "/appointments", Permission: "view appointments"},
	{Label: "Vaccinations", Path: "/vaccinations", Permission: "view vaccinations"},
	{Label: "Users", Path: "/users", Permission: "view users"},
	{Label: "Daily Report", Path: "/reports/daily", Permission: "view reports"},
}

// CoarseMenu returns the admin set for holders of the "admin" role and the
// staff set for everyone else. An absent session gets nothing.
func CoarseMenu(s *session.Session) []Link {
	if !s.Valid() {
		return nil
	}
	if s.User.HasRole(CoarseAdminRole) {
		return clone(AdminLinks)
	}
	return clone(StaffLinks)
}

// PermittedLinks filters links by the session's permission list. Holders of
// the "Admin" role implicitly hold every permission.
func PermittedLinks(s *session.Session, links []Link) []Link {
	if !s.Valid() {
		return nil
	}
	all := s.User.HasRole(SuperPermissionRole)
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if all || l.Permission == "" || s.User.HasPermission(l.Permission) {
			out = append(out, l)
		}
	}
	return out
}

// Menu combines both gates: administrators get the admin set, everyone
// else gets the staff set filtered by permission.
func Menu(s *session.Session) []Link {
	if !s.Valid() {
		return nil
	}
	if s.User.HasRole(CoarseAdminRole) {
		return CoarseMenu(s)
	}
	return PermittedLinks(s, StaffLinks)
}

// Can reports whether the session may use a feature guarded by permission.
// Holders of either administrator role may use everything.
func Can(s *session.Session, permission string) bool {
	if !s.Valid() {
		return false
	}
	if permission == "" || s.User.HasRole(CoarseAdminRole) || s.User.HasRole(SuperPermissionRole) {
		return true
	}
	return s.User.HasPermission(permission)
}

func clone(links []Link) []Link {
	out := make([]Link, len(links))
	copy(out, links)
	return out
}
