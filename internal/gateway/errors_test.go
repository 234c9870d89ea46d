package gateway

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
	}{
		{"token not valid", 401, `{"code":"token_not_valid","detail":"expired"}`, KindTokenInvalid, `{"code":"token_not_valid","detail":"expired"}`},
		{"token code on 403", 403, `{"code":"token_not_valid"}`, KindTokenInvalid, `{"code":"token_not_valid"}`},
		{"other code", 401, `{"code":"user_inactive"}`, KindTransport, `{"code":"user_inactive"}`},
		{"not json", 500, `<html>oops</html>`, KindTransport, `<html>oops</html>`},
		{"broken json", 400, `{"code":`, KindTransport, `{"code":`},
		{"json array", 400, `["a"]`, KindTransport, `["a"]`},
		{"empty", 404, ``, KindTransport, "Error 404"},
		{"whitespace kept verbatim", 502, "  \n", KindTransport, "  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Classify(tt.status, []byte(tt.body))
			if e.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", e.Kind, tt.kind)
			}
			if e.Message != tt.message {
				t.Errorf("message = %q, want %q", e.Message, tt.message)
			}
			if e.Status != tt.status {
				t.Errorf("status = %d, want %d", e.Status, tt.status)
			}
			if e.RawBody != tt.body {
				t.Errorf("raw body = %q, want %q", e.RawBody, tt.body)
			}
		})
	}
}

func TestDetail(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail":"No active account found"}`, "No active account found"},
		{`{"detail":["x"]}`, ""},
		{`{"error":"x"}`, ""},
		{`plain`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		if got := Classify(400, []byte(tt.body)).Detail(); got != tt.want {
			t.Errorf("Detail(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}

	var nilErr *Error
	if nilErr.Detail() != "" {
		t.Error("nil error detail should be empty")
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	base := NewValidationError("invalid email")
	wrapped := fmt.Errorf("login: %w", base)

	if !IsKind(wrapped, KindValidation) {
		t.Fatal("expected validation kind through wrapping")
	}
	if IsKind(wrapped, KindTransport) {
		t.Fatal("unexpected transport kind")
	}
	if IsKind(errors.New("plain"), KindValidation) {
		t.Fatal("plain errors have no kind")
	}
}

func TestCredentialsInvalidateOnlyMatchingToken(t *testing.T) {
	c := NewCredentials()
	c.Install("old")
	c.Install("new")
	c.Invalidate("old")
	if c.Token() != "new" {
		t.Fatalf("a newer token must survive invalidation of the old one, got %q", c.Token())
	}
	c.Invalidate("new")
	if c.Token() != "" {
		t.Fatalf("expected cleared token, got %q", c.Token())
	}
}
