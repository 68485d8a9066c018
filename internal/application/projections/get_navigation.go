package projections

// Page paths.
const (
	PathHome       = "/"
	PathAttendance = "/attendance"
	PathRegister   = "/register"
	PathReports    = "/reports"
)

// NavItem is one sidebar entry.
type NavItem struct {
	Label  string
	Path   string
	Active bool
}

// Navigation is the sidebar for one render.
type Navigation struct {
	Items    []NavItem
	LoggedIn bool
	Greeting string
}

// GetNavigationQuery carries query parameters.
type GetNavigationQuery struct {
	LoggedIn    bool
	DisplayName string // user's name claim; may be empty
	CurrentPath string
}

// QueryGetNavigation returns the pages exposed for the session's login state.
// PRE: none
// POST: logged in exposes {Log out, Reports}; otherwise {Log in, User Attendance, Registration}
func QueryGetNavigation(query GetNavigationQuery) Navigation {
	var items []NavItem
	nav := Navigation{LoggedIn: query.LoggedIn}
	if query.LoggedIn {
		items = []NavItem{
			{Label: "Log out", Path: PathHome},
			{Label: "Reports", Path: PathReports},
		}
		name := query.DisplayName
		if name == "" {
			name = "Admin"
		}
		nav.Greeting = "Welcome, " + name + "!"
	} else {
		items = []NavItem{
			{Label: "Log in", Path: PathHome},
			{Label: "User Attendance", Path: PathAttendance},
			{Label: "Registration", Path: PathRegister},
		}
	}
	for i := range items {
		items[i].Active = items[i].Path == query.CurrentPath
	}
	nav.Items = items
	return nav
}

// Exposes reports whether path is reachable in the navigation's state.
func (n Navigation) Exposes(path string) bool {
	for _, item := range n.Items {
		if item.Path == path {
			return true
		}
	}
	return false
}
