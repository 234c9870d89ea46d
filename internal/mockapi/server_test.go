package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/marcus-qen/erplite/internal/account"
)

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, s *Server, email, password string) string {
	t.Helper()
	w := do(t, s, http.MethodPost, "/api/accounts/login/", "",
		`{"email":"`+email+`","password":"`+password+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Access  string         `json:"access"`
		Refresh string         `json:"refresh"`
		User    map[string]any `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Access == "" || resp.Refresh == "" || resp.User["email"] != email {
		t.Fatalf("unexpected login response %s", w.Body.String())
	}
	return resp.Access
}

func TestAuthContract(t *testing.T) {
	s := New("/api")
	s.SeedDemo()

	w := do(t, s, http.MethodPost, "/api/accounts/login/", "", `{"email":"admin@erplite.local","password":"nope"}`)
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), `"detail"`) {
		t.Fatalf("bad credentials: %d %s", w.Code, w.Body.String())
	}

	w = do(t, s, http.MethodGet, "/api/clientes/", "", "")
	if w.Code != http.StatusUnauthorized || strings.Contains(w.Body.String(), "token_not_valid") {
		t.Fatalf("missing header should be a plain 401: %d %s", w.Code, w.Body.String())
	}

	w = do(t, s, http.MethodGet, "/api/clientes/", "forged", "")
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), `"code":"token_not_valid"`) {
		t.Fatalf("unknown token should be token_not_valid: %d %s", w.Code, w.Body.String())
	}

	token := login(t, s, DemoAdminEmail, DemoAdminPassword)
	if w := do(t, s, http.MethodGet, "/api/clientes/", token, ""); w.Code != http.StatusOK {
		t.Fatalf("authorized list: %d", w.Code)
	}

	s.ExpireTokens()
	if w := do(t, s, http.MethodGet, "/api/clientes/", token, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expired token accepted: %d", w.Code)
	}
}

func TestCRUDContract(t *testing.T) {
	s := New("/api")
	s.SeedDemo()
	token := login(t, s, DemoAdminEmail, DemoAdminPassword)

	w := do(t, s, http.MethodPost, "/api/fornecedores/", token, `{"nome":"Novo"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}
	var created map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	id := int64(created["id"].(float64))

	if w := do(t, s, http.MethodPatch, "/api/fornecedores/2/", token, `{"email":"n@x.com","id":99}`); w.Code != http.StatusOK {
		t.Fatalf("patch: %d", w.Code)
	}
	rec, ok := s.Record(SuppliersPath, id)
	if !ok || rec["email"] != "n@x.com" || rec["id"] != id {
		t.Fatalf("patch not applied or id overwritten: %+v", rec)
	}

	if w := do(t, s, http.MethodDelete, "/api/fornecedores/2/", token, ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	if w := do(t, s, http.MethodDelete, "/api/fornecedores/2/", token, ""); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", w.Code)
	}

	w = do(t, s, http.MethodGet, "/api/accounts/funcionarios/", token, "")
	if strings.Contains(w.Body.String(), "password") {
		t.Fatal("employee listing leaked a password field")
	}
}

func TestRequestsAreRecorded(t *testing.T) {
	s := New("/api")
	s.SeedDemo()
	token := login(t, s, DemoUserEmail, DemoUserPassword)
	do(t, s, http.MethodGet, "/api/produtos/?page=1", token, "")

	req, ok := s.LastRequest(ProductsPath)
	if !ok || req.Authorization != "Bearer "+token || req.Method != http.MethodGet {
		t.Fatalf("unexpected recorded request %+v", req)
	}
	if got := len(s.Requests()); got != 2 {
		t.Fatalf("expected 2 recorded requests, got %d", got)
	}
}

func TestPasswordsAreHashed(t *testing.T) {
	s := New("/api")
	id := s.AddUser(account.User{Name: "Ana", Email: "ana@x.com"}, "secret123")

	hash := s.passwords["ana@x.com"]
	if len(hash) == 0 || string(hash) == "secret123" {
		t.Fatalf("password stored in clear: %q", hash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte("secret123")); err != nil {
		t.Fatalf("stored hash does not match: %v", err)
	}

	token := login(t, s, "ana@x.com", "secret123")
	path := fmt.Sprintf("/api/accounts/funcionarios/%d/change_password/", id)

	if w := do(t, s, http.MethodPost, path, token, `{"old_password":"wrong","new_password":"another123"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("wrong old password accepted: %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, path, token, `{"old_password":"secret123","new_password":"another123"}`); w.Code != http.StatusOK {
		t.Fatalf("change password: %d %s", w.Code, w.Body.String())
	}
	if string(s.passwords["ana@x.com"]) == "another123" {
		t.Fatal("new password stored in clear")
	}
	if w := do(t, s, http.MethodPost, "/api/accounts/login/", "", `{"email":"ana@x.com","password":"secret123"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("old password still accepted: %d", w.Code)
	}
	login(t, s, "ana@x.com", "another123")
}

func TestSeedUnknownPath(t *testing.T) {
	s := New("/api")
	if id := s.Seed("/nope/", map[string]any{"nome": "x"}); id != 0 {
		t.Fatalf("expected 0 for an unknown collection, got %d", id)
	}
	if _, ok := s.Record("/nope/", 0); ok {
		t.Fatal("unknown collection must not hold records")
	}
}

func TestReportRoutesRequireToken(t *testing.T) {
	s := New("/api")
	s.SeedDemo()
	for _, p := range []string{ReportPath, StockStatsPath} {
		if w := do(t, s, http.MethodGet, "/api"+p, "", ""); w.Code != http.StatusUnauthorized {
			t.Fatalf("%s without token: %d", p, w.Code)
		}
	}

	token := login(t, s, DemoAdminEmail, DemoAdminPassword)
	w := do(t, s, http.MethodGet, "/api"+ReportPath+"?data_inicio=2026-10-03", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("report: %d", w.Code)
	}
	var report struct {
		TotalSales  int              `json:"total_vendas"`
		TopProducts []map[string]any `json:"produtos_mais_vendidos"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.TotalSales != 2 || len(report.TopProducts) != 2 {
		t.Fatalf("unexpected demo report %s", w.Body.String())
	}

	if w := do(t, s, http.MethodGet, "/api"+StockStatsPath, token, ""); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"produtos_sem_estoque":0`) {
		t.Fatalf("stock stats: %d %s", w.Code, w.Body.String())
	}
}
