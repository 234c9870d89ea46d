// Package account holds the authenticated user record shared by the session,
// permission and auth packages.
package account

// User is the identity returned by the login endpoint and held for the
// lifetime of a session. Field tags follow the backend's wire names.
type User struct {
	ID          int64  `json:"id"`
	Name        string `json:"nome"`
	Email       string `json:"email"`
	JobTitle    string `json:"cargo,omitempty"`
	AccessLevel string `json:"nivel_acesso,omitempty"`

	// UIPermissions is the serialized granular-permission map. It is kept as
	// raw text because the backend stores it that way and it may be malformed.
	UIPermissions string `json:"ui_permissoes,omitempty"`

	IsStaff     bool `json:"is_staff,omitempty"`
	IsSuperuser bool `json:"is_superuser,omitempty"`
}

// DisplayName returns the name, falling back to the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
