// Package mockapi is an in-memory stand-in for the ERP REST backend. It
// implements the login, registration and paginated CRUD contract closely
// enough for tests and local development.
package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/marcus-qen/erplite/internal/account"
)

// PageSize is the number of results per list page.
const PageSize = 10

// Resource paths served by the mock, relative to the prefix.
const (
	ClientsPath    = "/clientes/"
	EmployeesPath  = "/accounts/funcionarios/"
	SuppliersPath  = "/fornecedores/"
	ProductsPath   = "/produtos/"
	SalesPath      = "/vendas/"
	MovementsPath  = "/movimentacoes/"
	DashboardPath  = "/relatorios/geral/dashboard/"
	ReportPath     = "/relatorios/geral/"
	StockStatsPath = "/relatorios/geral/estatisticas-estoque/"
)

// MinPasswordLength mirrors the backend's password validation.
const MinPasswordLength = 8

var resourcePaths = []string{ClientsPath, EmployeesPath, SuppliersPath, ProductsPath, SalesPath, MovementsPath}

// Request is one request observed by the server.
type Request struct {
	Method        string
	Path          string
	Authorization string
}

type collection struct {
	nextID int64
	items  map[int64]map[string]any
}

// Server is an http.Handler serving the mock API under a path prefix.
type Server struct {
	prefix string
	router *mux.Router

	mu          sync.Mutex
	collections map[string]*collection
	passwords   map[string][]byte
	tokens      map[string]int64
	requests    []Request
}

// New returns an empty server mounted under prefix (for example "/api").
func New(prefix string) *Server {
	s := &Server{
		prefix:      strings.TrimSuffix(prefix, "/"),
		collections: map[string]*collection{},
		passwords:   map[string][]byte{},
		tokens:      map[string]int64{},
	}
	for _, p := range resourcePaths {
		s.collections[p] = &collection{nextID: 1, items: map[int64]map[string]any{}}
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := mux.NewRouter()
	api := r.PathPrefix(s.prefix).Subrouter()

	api.HandleFunc("/accounts/login/", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/accounts/register/", s.handleRegister).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(s.requireToken)
	protected.HandleFunc(DashboardPath, s.handleDashboard).Methods(http.MethodGet)
	protected.HandleFunc(ReportPath, s.handleReport).Methods(http.MethodGet)
	protected.HandleFunc(StockStatsPath, s.handleStockStats).Methods(http.MethodGet)
	protected.HandleFunc(EmployeesPath+"{id:[0-9]+}/change_password/", s.handleChangePassword).Methods(http.MethodPost)

	for _, p := range resourcePaths {
		path := p
		protected.HandleFunc(path, s.listHandler(path)).Methods(http.MethodGet)
		protected.HandleFunc(path, s.createHandler(path)).Methods(http.MethodPost)
		protected.HandleFunc(path+"{id:[0-9]+}/", s.getHandler(path)).Methods(http.MethodGet)
		protected.HandleFunc(path+"{id:[0-9]+}/", s.updateHandler(path)).Methods(http.MethodPatch, http.MethodPut)
		protected.HandleFunc(path+"{id:[0-9]+}/", s.deleteHandler(path)).Methods(http.MethodDelete)
	}
	s.router = r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        r.Method,
		Path:          strings.TrimPrefix(r.URL.Path, s.prefix),
		Authorization: r.Header.Get("Authorization"),
	})
	s.mu.Unlock()
	s.router.ServeHTTP(w, r)
}

// AddUser registers an employee that can log in with password. The assigned
// id is returned. It panics if the password cannot be hashed.
func (s *Server) AddUser(u account.User, password string) int64 {
	hash, err := hashPassword(password)
	if err != nil {
		panic("mockapi: " + err.Error())
	}
	rec := map[string]any{
		"nome":          u.Name,
		"email":         u.Email,
		"cargo":         u.JobTitle,
		"nivel_acesso":  u.AccessLevel,
		"ui_permissoes": u.UIPermissions,
		"is_staff":      u.IsStaff,
		"is_superuser":  u.IsSuperuser,
		"is_active":     true,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwords[strings.ToLower(u.Email)] = hash
	return s.insertLocked(EmployeesPath, rec)
}

// Seed inserts a record into a resource collection and returns its id, or 0
// when path is not one of the served collections.
func (s *Server) Seed(path string, rec map[string]any) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(path, rec)
}

// Record returns a copy of a stored record.
func (s *Server) Record(path string, id int64) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[path]
	if !ok {
		return nil, false
	}
	rec, ok := c.items[id]
	if !ok {
		return nil, false
	}
	return copyRecord(rec), true
}

// ExpireTokens makes every issued token invalid.
func (s *Server) ExpireTokens() {
	s.mu.Lock()
	s.tokens = map[string]int64{}
	s.mu.Unlock()
}

// Requests returns the requests observed so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request for path, if any.
func (s *Server) LastRequest(path string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Path == path {
			return s.requests[i], true
		}
	}
	return Request{}, false
}

func (s *Server) insertLocked(path string, rec map[string]any) int64 {
	c, ok := s.collections[path]
	if !ok {
		return 0
	}
	id := c.nextID
	c.nextID++
	stored := copyRecord(rec)
	stored["id"] = id
	c.items[id] = stored
	return id
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed request body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(body.Email))
	hash, ok := s.passwords[email]
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(body.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
		return
	}

	var user map[string]any
	for _, rec := range s.collections[EmployeesPath].items {
		if e, _ := rec["email"].(string); strings.EqualFold(e, email) {
			user = rec
			break
		}
	}
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
		return
	}

	access := "acc_" + uuid.NewString()
	s.tokens[access] = user["id"].(int64)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":    publicUser(user),
		"access":  access,
		"refresh": "ref_" + uuid.NewString(),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed request body"})
		return
	}
	email, _ := body["email"].(string)
	password, _ := body["password"].(string)
	if !strings.Contains(email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]any{"email": []string{"Enter a valid email address."}})
		return
	}
	if len(password) < MinPasswordLength {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"password": []string{"Ensure this field has at least 8 characters."},
		})
		return
	}

	hash, err := hashPassword(password)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"password": []string{err.Error()}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	if _, exists := s.passwords[key]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]any{"email": []string{"already registered"}})
		return
	}
	delete(body, "password")
	s.passwords[key] = hash
	id := s.insertLocked(EmployeesPath, body)
	writeJSON(w, http.StatusCreated, publicUser(s.collections[EmployeesPath].items[id]))
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Authentication credentials were not provided.",
			})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		s.mu.Lock()
		_, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}
		search := strings.ToLower(r.URL.Query().Get("search"))

		s.mu.Lock()
		c := s.collections[path]
		ids := make([]int64, 0, len(c.items))
		for id, rec := range c.items {
			if search != "" && !matches(rec, search) {
				continue
			}
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		start := (page - 1) * PageSize
		if start > len(ids) {
			start = len(ids)
		}
		end := start + PageSize
		if end > len(ids) {
			end = len(ids)
		}
		results := make([]map[string]any, 0, end-start)
		for _, id := range ids[start:end] {
			rec := c.items[id]
			if path == EmployeesPath {
				results = append(results, publicUser(rec))
				continue
			}
			results = append(results, copyRecord(rec))
		}
		s.mu.Unlock()

		var next, prev *string
		if end < len(ids) {
			n := pageURL(r, page+1)
			next = &n
		}
		if page > 1 {
			p := pageURL(r, page-1)
			prev = &p
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count":    len(ids),
			"next":     next,
			"previous": prev,
			"results":  results,
		})
	}
}

func (s *Server) createHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed request body"})
			return
		}
		s.mu.Lock()
		id := s.insertLocked(path, body)
		rec := copyRecord(s.collections[path].items[id])
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, rec)
	}
}

func (s *Server) getHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := s.Record(path, routeID(r))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		if path == EmployeesPath {
			rec = publicUser(rec)
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) updateHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed request body"})
			return
		}
		id := routeID(r)

		var hash []byte
		if pw, set := body["password"].(string); set && path == EmployeesPath {
			var err error
			if hash, err = hashPassword(pw); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"password": []string{err.Error()}})
				return
			}
			delete(body, "password")
		}

		s.mu.Lock()
		rec, ok := s.collections[path].items[id]
		if ok {
			if hash != nil {
				email, _ := rec["email"].(string)
				s.passwords[strings.ToLower(email)] = hash
			}
			for k, v := range body {
				if k == "id" {
					continue
				}
				rec[k] = v
			}
			rec = copyRecord(rec)
		}
		s.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		if path == EmployeesPath {
			rec = publicUser(rec)
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) deleteHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := routeID(r)
		s.mu.Lock()
		_, ok := s.collections[path].items[id]
		delete(s.collections[path].items, id)
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewPassword == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "new_password is required"})
		return
	}
	id := routeID(r)
	hash, err := hashPassword(body.NewPassword)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.collections[EmployeesPath].items[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	email, _ := rec["email"].(string)
	key := strings.ToLower(email)
	if bcrypt.CompareHashAndPassword(s.passwords[key], []byte(body.OldPassword)) != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "old password is incorrect"})
		return
	}
	s.passwords[key] = hash
	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	sales := s.collections[SalesPath].items
	for _, rec := range sales {
		total += number(rec["total"])
	}
	avg := 0.0
	if len(sales) > 0 {
		avg = total / float64(len(sales))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"vendasMes":           total,
		"novosClientes":       len(s.collections[ClientsPath].items),
		"totalPedidos":        len(sales),
		"ticketMedio":         avg,
		"vendasCrescimento":   0,
		"clientesCrescimento": 0,
	})
}

func hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func publicUser(rec map[string]any) map[string]any {
	out := copyRecord(rec)
	delete(out, "password")
	return out
}

func copyRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func matches(rec map[string]any, search string) bool {
	for _, v := range rec {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), search) {
			return true
		}
	}
	return false
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}

func routeID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func pageURL(r *http.Request, page int) string {
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u := *r.URL
	u.RawQuery = q.Encode()
	return u.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
