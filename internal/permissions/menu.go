package permissions

import (
	"github.com/marcus-qen/erplite/internal/account"
)

// MenuItem is one sidebar entry.
type MenuItem struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Menu is the full sidebar in display order.
var Menu = []MenuItem{
	{Title: "Dashboard", Path: "/dashboard"},
	{Title: "Clients", Path: "/clients"},
	{Title: "Employees", Path: "/employees"},
	{Title: "Suppliers", Path: "/suppliers"},
	{Title: "Products", Path: "/products"},
	{Title: "Sales", Path: "/sales"},
	{Title: "Settings", Path: settingsPath},
}

var menuCapabilities = map[string]Capability{
	"/dashboard": CapDashboard,
	"/clients":   CapClients,
	"/suppliers": CapSuppliers,
	"/products":  CapProducts,
	"/sales":     CapSales,
}

// VisibleMenu returns the sidebar entries the user should see.
func VisibleMenu(u *account.User) []MenuItem {
	if IsAdmin(u) {
		return append([]MenuItem(nil), Menu...)
	}

	raw := ""
	if u != nil {
		raw = u.UIPermissions
	}
	perms := ParseGranular(raw, DenyByDefault)

	out := make([]MenuItem, 0, len(Menu))
	for _, item := range Menu {
		if menuItemVisible(perms, item.Path) {
			out = append(out, item)
		}
	}
	return out
}

func menuItemVisible(perms Granular, path string) bool {
	switch path {
	case settingsPath:
		return true
	case "/employees":
		// Employees has no capability key; non-admins never see it.
		return false
	}
	c, ok := menuCapabilities[path]
	if !ok {
		return false
	}
	return perms.Get(c)
}
