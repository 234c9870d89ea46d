package permissions

import (
	"strings"

	"github.com/marcus-qen/erplite/internal/account"
)

const settingsPath = "/settings"

// userPaths are the only pages a non-admin can ever reach.
var userPaths = map[string]bool{
	"/sales":                    true,
	"/products":                 true,
	"/clients":                  true,
	settingsPath:                true,
	"/settings/profile":         true,
	"/settings/change-password": true,
}

// pathCapabilities gates allow-listed pages behind a granular capability.
var pathCapabilities = map[string]Capability{
	"/sales":    CapSales,
	"/products": CapProducts,
	"/clients":  CapClients,
}

// CanAccessPath reports whether the user may navigate to path.
func CanAccessPath(u *account.User, path string) bool {
	if IsAdmin(u) {
		return true
	}

	p := NormalizePath(path)
	if !userPaths[p] {
		return false
	}
	if p == settingsPath || strings.HasPrefix(p, settingsPath+"/") {
		return true
	}

	c, ok := pathCapabilities[p]
	if !ok {
		return false
	}

	raw := ""
	if u != nil {
		raw = u.UIPermissions
	}
	return ParseGranular(raw, DenyByDefault).Get(c)
}

// NormalizePath drops a single trailing slash, leaving "/" untouched.
func NormalizePath(path string) string {
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		return path[:len(path)-1]
	}
	return path
}
