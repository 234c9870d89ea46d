package permissions

import (
	"testing"

	"github.com/marcus-qen/erplite/internal/account"
)

func TestNormalizeAccessLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want AccessLevel
	}{
		{"admin", LevelAdmin},
		{"ADMIN", LevelAdmin},
		{"Admin", LevelAdmin},
		{"administrador", LevelAdmin},
		{"Administrador", LevelAdmin},
		{"ADMINISTRADOR", LevelAdmin},
		{"usuario", LevelUser},
		{"Usuario", LevelUser},
		{"usuário", LevelUser},
		{"user", LevelUser},
		{"USER", LevelUser},
		{"", LevelUser},
		{"root", LevelUser},
		{" admin", LevelUser},
		{"superadmin", LevelUser},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizeAccessLevel(tt.raw); got != tt.want {
				t.Errorf("NormalizeAccessLevel(%q) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestIsAdmin(t *testing.T) {
	if IsAdmin(nil) {
		t.Fatal("nil user must not be admin")
	}
	for _, level := range []string{"admin", "Administrador", "aDmIn"} {
		if !IsAdmin(&account.User{AccessLevel: level}) {
			t.Errorf("expected %q to be admin", level)
		}
	}
	for _, level := range []string{"", "user", "usuario", "manager"} {
		if IsAdmin(&account.User{AccessLevel: level}) {
			t.Errorf("expected %q not to be admin", level)
		}
	}
	if CanEditProducts(&account.User{AccessLevel: "user"}) {
		t.Error("non-admin must not edit products")
	}
	if !CanEditProducts(&account.User{AccessLevel: "admin"}) {
		t.Error("admin must edit products")
	}
}

func TestParseGranularMalformedYieldsDefault(t *testing.T) {
	inputs := []string{
		"",
		"{broken",
		"null",
		"[]",
		"[true]",
		"42",
		`"vendas"`,
		"true",
	}

	for _, def := range []bool{DenyByDefault, AllowByDefault} {
		want := NewGranular(def)
		for _, raw := range inputs {
			if got := ParseGranular(raw, def); got != want {
				t.Errorf("ParseGranular(%q, %v) = %+v, want %+v", raw, def, got, want)
			}
		}
	}
}

func TestParseGranularWrongTypesTakeDefault(t *testing.T) {
	raw := `{"vendas":"yes","produtos":1,"clientes":null,"dashboard":{"x":true}}`

	if got := ParseGranular(raw, DenyByDefault); got != NewGranular(false) {
		t.Fatalf("expected all-false, got %+v", got)
	}
	if got := ParseGranular(raw, AllowByDefault); got != NewGranular(true) {
		t.Fatalf("expected all-true, got %+v", got)
	}
}

func TestParseGranularPartial(t *testing.T) {
	raw := `{"vendas":true,"produtos":false}`

	deny := ParseGranular(raw, DenyByDefault)
	if !deny.Sales || deny.Products || deny.Clients || deny.Dashboard || deny.Suppliers || deny.Reports {
		t.Fatalf("unexpected deny-by-default result: %+v", deny)
	}

	allow := ParseGranular(raw, AllowByDefault)
	if !allow.Sales || allow.Products || !allow.Clients || !allow.Dashboard || !allow.Suppliers || !allow.Reports {
		t.Fatalf("unexpected allow-by-default result: %+v", allow)
	}
}

func TestGranularEncodeParses(t *testing.T) {
	g := NewGranular(false)
	g.Set(CapSales, true)
	g.Set(CapReports, true)

	if got := ParseGranular(g.Encode(), AllowByDefault); got != g {
		t.Fatalf("encoded blob parsed to %+v, want %+v", got, g)
	}
}

func TestParseCapability(t *testing.T) {
	if c, ok := ParseCapability("fornecedores"); !ok || c != CapSuppliers {
		t.Fatalf("expected fornecedores, got %q ok=%v", c, ok)
	}
	if _, ok := ParseCapability("employees"); ok {
		t.Fatal("employees is not a capability")
	}
}

func TestCanAccessPathAdmin(t *testing.T) {
	admin := &account.User{AccessLevel: "Administrador"}
	for _, p := range []string{"/", "/employees", "/dashboard", "/suppliers", "/sales/42", "/anything/else", ""} {
		if !CanAccessPath(admin, p) {
			t.Errorf("admin denied %q", p)
		}
	}
}

func TestCanAccessPathNonAdmin(t *testing.T) {
	none := &account.User{AccessLevel: "user", UIPermissions: NewGranular(false).Encode()}
	all := &account.User{AccessLevel: "user", UIPermissions: NewGranular(true).Encode()}

	tests := []struct {
		path    string
		none    bool
		allCaps bool
	}{
		{"/employees", false, false},
		{"/dashboard", false, false},
		{"/suppliers", false, false},
		{"/settings", true, true},
		{"/settings/", true, true},
		{"/settings/profile", true, true},
		{"/settings/change-password", true, true},
		{"/settings/permissions", false, false},
		{"/sales", false, true},
		{"/sales/", false, true},
		{"/products", false, true},
		{"/clients", false, true},
		{"/clients/7", false, false},
		{"/", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := CanAccessPath(none, tt.path); got != tt.none {
				t.Errorf("no caps: CanAccessPath(%q) = %v, want %v", tt.path, got, tt.none)
			}
			if got := CanAccessPath(all, tt.path); got != tt.allCaps {
				t.Errorf("all caps: CanAccessPath(%q) = %v, want %v", tt.path, got, tt.allCaps)
			}
		})
	}
}

func TestCanAccessPathIgnoresEmployeesKey(t *testing.T) {
	u := &account.User{
		AccessLevel:   "usuario",
		UIPermissions: `{"vendas":true,"produtos":false,"clientes":false,"employees":true}`,
	}

	if !CanAccessPath(u, "/sales") {
		t.Error("expected /sales allowed")
	}
	if CanAccessPath(u, "/products") {
		t.Error("expected /products denied")
	}
	if CanAccessPath(u, "/employees") {
		t.Error("expected /employees denied regardless of injected key")
	}
}

func TestCanAccessPathMalformedBlob(t *testing.T) {
	u := &account.User{AccessLevel: "user", UIPermissions: "{broken"}
	if CanAccessPath(u, "/sales") {
		t.Error("malformed blob must deny capability-gated paths")
	}
	if !CanAccessPath(u, "/settings") {
		t.Error("settings must stay reachable")
	}
	if CanAccessPath(nil, "/sales") {
		t.Error("nil user must be denied")
	}
}

func TestVisibleMenu(t *testing.T) {
	admin := VisibleMenu(&account.User{AccessLevel: "admin"})
	if len(admin) != len(Menu) {
		t.Fatalf("admin should see %d items, got %d", len(Menu), len(admin))
	}

	u := &account.User{
		AccessLevel:   "user",
		UIPermissions: `{"dashboard":true,"vendas":true,"fornecedores":true,"employees":true}`,
	}
	got := paths(VisibleMenu(u))
	want := []string{"/dashboard", "/suppliers", "/sales", "/settings"}
	if len(got) != len(want) {
		t.Fatalf("menu = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("menu = %v, want %v", got, want)
		}
	}

	bare := paths(VisibleMenu(&account.User{AccessLevel: "user"}))
	if len(bare) != 1 || bare[0] != "/settings" {
		t.Fatalf("user without permissions should only see settings, got %v", bare)
	}
}

func paths(items []MenuItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Path)
	}
	return out
}
