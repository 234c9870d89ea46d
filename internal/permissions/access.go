/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0
*/

// Package permissions evaluates what an authenticated user may see and reach.
//
// There are two layers:
//   - the coarse access level (admin or user) derived from free text
//   - the granular capability map attached to non-admin users
//
// Admins bypass the granular layer entirely. Every function here is pure and
// total: malformed input degrades to the restrictive answer instead of failing.
package permissions

import (
	"strings"

	"github.com/marcus-qen/erplite/internal/account"
)

// AccessLevel is the coarse classification of a user.
type AccessLevel string

const (
	// LevelAdmin can reach every page and bypasses granular permissions.
	LevelAdmin AccessLevel = "admin"

	// LevelUser is gated by granular permissions.
	LevelUser AccessLevel = "user"
)

// NormalizeAccessLevel maps the free-text access level to an AccessLevel.
// Unknown values, including the empty string, fail closed to LevelUser.
func NormalizeAccessLevel(raw string) AccessLevel {
	switch strings.ToLower(raw) {
	case "admin", "administrador":
		return LevelAdmin
	case "usuario", "usuário", "user":
		return LevelUser
	default:
		return LevelUser
	}
}

// IsAdmin reports whether the user's access level normalizes to admin.
func IsAdmin(u *account.User) bool {
	if u == nil {
		return false
	}
	return NormalizeAccessLevel(u.AccessLevel) == LevelAdmin
}

// CanEditProducts reports whether the user may create, edit or delete products.
func CanEditProducts(u *account.User) bool {
	return IsAdmin(u)
}
