/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/marcus-qen/erplite/internal/account"
	"github.com/marcus-qen/erplite/internal/auth"
	"github.com/marcus-qen/erplite/internal/gateway"
	"github.com/marcus-qen/erplite/internal/guard"
	"github.com/marcus-qen/erplite/internal/mockapi"
	"github.com/marcus-qen/erplite/internal/permissions"
	"github.com/marcus-qen/erplite/internal/session"
)

// client is one running front end: token holder, gateway, persisted store and
// controller.
type client struct {
	creds *gateway.Credentials
	gw    *gateway.Client
	store *session.Store
	ctrl  *auth.Controller
}

func newClient(baseURL, sessionDir string) *client {
	creds := gateway.NewCredentials()
	gw := gateway.New(baseURL, creds)
	store := session.NewStore(session.NewFileBackend(sessionDir), zap.NewNop())
	return &client{
		creds: creds,
		gw:    gw,
		store: store,
		ctrl:  auth.NewController(gw, creds, store, zap.NewNop()),
	}
}

var _ = Describe("Admin login", func() {
	ctx := context.Background()

	It("grants an admin every page", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/api/accounts/login/"))
			Expect(r.Header.Get("Authorization")).To(BeEmpty())
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"user":{"id":1,"nome":"A","email":"a@b.com","nivel_acesso":"admin"},"access":"tok1","refresh":"ref1"}`))
		}))
		DeferCleanup(srv.Close)

		c := newClient(srv.URL+"/api", GinkgoT().TempDir())
		Expect(c.ctrl.Login(ctx, "a@b.com", "secret")).To(Succeed())

		user := c.ctrl.User()
		Expect(permissions.IsAdmin(user)).To(BeTrue())
		Expect(permissions.CanAccessPath(user, "/employees")).To(BeTrue())
		Expect(guard.Check(c.ctrl, "/employees")).To(Equal(guard.Decision{Allowed: true}))

		Expect(c.creds.Token()).To(Equal("tok1"))
		persisted := c.store.Load(ctx)
		Expect(persisted).NotTo(BeNil())
		Expect(persisted.Access).To(Equal("tok1"))
		Expect(persisted.Refresh).To(Equal("ref1"))
		Expect(persisted.User.ID).To(Equal(int64(1)))
	})
})

var _ = Describe("Restricted user", func() {
	It("follows the granular map and never reaches employees", func() {
		user := &account.User{
			ID:            7,
			AccessLevel:   "usuario",
			UIPermissions: `{"vendas":true,"produtos":false,"employees":true,"funcionarios":true}`,
		}

		Expect(permissions.IsAdmin(user)).To(BeFalse())
		Expect(permissions.CanAccessPath(user, "/sales")).To(BeTrue())
		Expect(permissions.CanAccessPath(user, "/products")).To(BeFalse())
		Expect(permissions.CanAccessPath(user, "/employees")).To(BeFalse())

		Expect(permissions.VisibleMenu(user)).NotTo(ContainElement(HaveField("Path", "/employees")))
	})

	DescribeTable("path access with every capability revoked",
		func(path string, allowed bool) {
			user := &account.User{AccessLevel: "user", UIPermissions: permissions.NewGranular(false).Encode()}
			Expect(permissions.CanAccessPath(user, path)).To(Equal(allowed))
		},
		Entry("employees", "/employees", false),
		Entry("dashboard", "/dashboard", false),
		Entry("suppliers", "/suppliers", false),
		Entry("settings", "/settings", true),
		Entry("profile", "/settings/profile", true),
		Entry("sales", "/sales", false),
		Entry("products", "/products", false),
		Entry("clients", "/clients", false),
	)
})

var _ = Describe("Gateway authentication", func() {
	var (
		ctx     context.Context
		backend *mockapi.Server
		c       *client
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = mockapi.New("/api")
		backend.AddUser(account.User{Name: "Ana", Email: "ana@erp.test", AccessLevel: "admin"}, "password1")
		srv := httptest.NewServer(backend)
		DeferCleanup(srv.Close)
		c = newClient(srv.URL+"/api", GinkgoT().TempDir())
	})

	It("attaches the bearer token only after login", func() {
		err := c.gw.Get(ctx, mockapi.ClientsPath, nil)
		Expect(err).To(HaveOccurred())
		req, ok := backend.LastRequest(mockapi.ClientsPath)
		Expect(ok).To(BeTrue())
		Expect(req.Authorization).To(BeEmpty())

		Expect(c.ctrl.Login(ctx, "ana@erp.test", "password1")).To(Succeed())
		Expect(c.gw.Get(ctx, mockapi.ClientsPath, nil)).To(Succeed())
		req, _ = backend.LastRequest(mockapi.ClientsPath)
		Expect(req.Authorization).To(Equal("Bearer " + c.ctrl.Token()))
	})

	It("clears the gateway token on token_not_valid but keeps the persisted session", func() {
		Expect(c.ctrl.Login(ctx, "ana@erp.test", "password1")).To(Succeed())
		token := c.ctrl.Token()

		backend.ExpireTokens()
		err := c.gw.Get(ctx, mockapi.ProductsPath, nil)
		Expect(gateway.IsKind(err, gateway.KindTokenInvalid)).To(BeTrue())

		Expect(c.creds.Token()).To(BeEmpty())
		persisted := c.store.Load(ctx)
		Expect(persisted).NotTo(BeNil())
		Expect(persisted.Access).To(Equal(token))
		Expect(c.ctrl.Stale()).To(BeTrue())
	})

	It("resurrects the rejected session on the next start", func() {
		Expect(c.ctrl.Login(ctx, "ana@erp.test", "password1")).To(Succeed())
		backend.ExpireTokens()
		_ = c.gw.Get(ctx, mockapi.SalesPath, nil)

		restarted := &client{creds: gateway.NewCredentials(), store: c.store}
		restarted.gw = gateway.New(c.gw.BaseURL(), restarted.creds)
		restarted.ctrl = auth.NewController(restarted.gw, restarted.creds, restarted.store, nil)

		Expect(restarted.ctrl.Restore(ctx)).To(BeTrue())
		Expect(restarted.creds.Token()).To(Equal(c.ctrl.Token()))
		Expect(guard.Check(restarted.ctrl, "/sales").Allowed).To(BeTrue())
	})

	It("fails the same way twice and writes nothing", func() {
		first := c.ctrl.Login(ctx, "ana@erp.test", "wrong")
		second := c.ctrl.Login(ctx, "ana@erp.test", "wrong")

		Expect(first).To(HaveOccurred())
		Expect(second).To(HaveOccurred())
		Expect(second.Error()).To(Equal(first.Error()))
		Expect(c.store.Load(ctx)).To(BeNil())
		Expect(guard.Check(c.ctrl, "/sales").Redirect).To(Equal(guard.LoginPath))
	})
})

var _ = Describe("Session persistence", func() {
	ctx := context.Background()

	It("round-trips through the file backend and clears", func() {
		dir := GinkgoT().TempDir()
		store := session.NewStore(session.NewFileBackend(dir), nil)
		sess := session.Session{
			User:   account.User{ID: 3, Name: "Rui", Email: "rui@x.com", AccessLevel: "usuario", UIPermissions: `{"vendas":true}`},
			Access: "a", Refresh: "r",
		}

		Expect(store.Save(ctx, sess)).To(Succeed())
		Expect(filepath.Join(dir, session.DefaultKey+".json")).To(BeAnExistingFile())
		Expect(store.Load(ctx)).To(Equal(&sess))

		Expect(store.Clear(ctx)).To(Succeed())
		Expect(store.Load(ctx)).To(BeNil())
	})
})
