package guard

import (
	"testing"

	"github.com/marcus-qen/erplite/internal/account"
)

type staticSession struct {
	token string
	user  *account.User
}

func (s staticSession) Token() string       { return s.token }
func (s staticSession) User() *account.User { return s.user }

func TestCheck(t *testing.T) {
	admin := &account.User{ID: 1, AccessLevel: "Administrador"}
	seller := &account.User{ID: 2, AccessLevel: "usuario", UIPermissions: `{"vendas":true,"produtos":false}`}
	broken := &account.User{ID: 3, AccessLevel: "user", UIPermissions: `{broken`}

	tests := []struct {
		name string
		sess SessionView
		path string
		want Decision
	}{
		{"nil session", nil, "/sales", Decision{Redirect: LoginPath}},
		{"no token", staticSession{user: admin}, "/employees", Decision{Redirect: LoginPath}},
		{"no token on settings", staticSession{}, "/settings", Decision{Redirect: LoginPath}},
		{"admin anywhere", staticSession{token: "t", user: admin}, "/employees", Decision{Allowed: true}},
		{"admin unknown page", staticSession{token: "t", user: admin}, "/whatever", Decision{Allowed: true}},
		{"granted capability", staticSession{token: "t", user: seller}, "/sales", Decision{Allowed: true}},
		{"trailing slash", staticSession{token: "t", user: seller}, "/sales/", Decision{Allowed: true}},
		{"revoked capability", staticSession{token: "t", user: seller}, "/products", Decision{Redirect: FallbackPath}},
		{"employees never for users", staticSession{token: "t", user: seller}, "/employees", Decision{Redirect: FallbackPath}},
		{"settings always", staticSession{token: "t", user: broken}, "/settings/profile", Decision{Allowed: true}},
		{"malformed blob denies", staticSession{token: "t", user: broken}, "/clients", Decision{Redirect: FallbackPath}},
		{"token without user", staticSession{token: "t"}, "/sales", Decision{Redirect: FallbackPath}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Check(tt.sess, tt.path); got != tt.want {
				t.Fatalf("Check(%q) = %+v, want %+v", tt.path, got, tt.want)
			}
		})
	}
}

func TestCheckIsReevaluated(t *testing.T) {
	user := &account.User{AccessLevel: "user", UIPermissions: `{"clientes":false}`}
	sess := &staticSession{token: "t", user: user}

	if Check(sess, "/clients").Allowed {
		t.Fatal("expected deny before grant")
	}
	user.UIPermissions = `{"clientes":true}`
	if !Check(sess, "/clients").Allowed {
		t.Fatal("expected allow after grant")
	}
	sess.token = ""
	if got := Check(sess, "/clients"); got.Redirect != LoginPath {
		t.Fatalf("expected login redirect after logout, got %+v", got)
	}
}
