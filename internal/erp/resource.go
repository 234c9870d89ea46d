// Package erp provides typed clients for the ERP entity endpoints: clients,
// employees, suppliers, products, sales and stock movements, plus the derived
// dashboard and notification views.
package erp

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/marcus-qen/erplite/internal/gateway"
)

// Endpoint paths, relative to the API base URL.
const (
	ClientsPath    = "/clientes/"
	EmployeesPath  = "/accounts/funcionarios/"
	RegisterPath   = "/accounts/register/"
	SuppliersPath  = "/fornecedores/"
	ProductsPath   = "/produtos/"
	SalesPath      = "/vendas/"
	MovementsPath  = "/movimentacoes/"
	DashboardPath  = "/relatorios/geral/dashboard/"
	ReportPath     = "/relatorios/geral/"
	StockStatsPath = "/relatorios/geral/estatisticas-estoque/"
	changePassword = "change_password/"
)

// Requester issues API calls. *gateway.Client satisfies it.
type Requester interface {
	Get(ctx context.Context, path string, out any, opts ...gateway.RequestOption) error
	Post(ctx context.Context, path string, body, out any, opts ...gateway.RequestOption) error
	Patch(ctx context.Context, path string, body, out any, opts ...gateway.RequestOption) error
	Delete(ctx context.Context, path string, opts ...gateway.RequestOption) error
}

// Resource is a paginated CRUD endpoint returning records of type T.
type Resource[T any] struct {
	api  Requester
	path string
}

// NewResource binds a resource to a collection path such as "/clientes/".
func NewResource[T any](api Requester, path string) *Resource[T] {
	return &Resource[T]{api: api, path: path}
}

// Path returns the collection path.
func (r *Resource[T]) Path() string {
	return r.path
}

// List fetches one page. Pages start at 1; an empty search is omitted.
func (r *Resource[T]) List(ctx context.Context, page int, search string) (*Page[T], error) {
	var out Page[T]
	if err := r.api.Get(ctx, r.listPath(page, search), &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		out.Results = []T{}
	}
	return &out, nil
}

// Get fetches one record by id.
func (r *Resource[T]) Get(ctx context.Context, id int64) (*T, error) {
	var out T
	if err := r.api.Get(ctx, r.itemPath(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create posts a new record. body is usually a T or a map of fields.
func (r *Resource[T]) Create(ctx context.Context, body any) (*T, error) {
	var out T
	if err := r.api.Post(ctx, r.path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update sends a partial update (PATCH) and returns the stored record.
func (r *Resource[T]) Update(ctx context.Context, id int64, patch any) (*T, error) {
	var out T
	if err := r.api.Patch(ctx, r.itemPath(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a record.
func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	return r.api.Delete(ctx, r.itemPath(id))
}

func (r *Resource[T]) listPath(page int, search string) string {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if search != "" {
		q.Set("search", search)
	}
	return r.path + "?" + q.Encode()
}

func (r *Resource[T]) itemPath(id int64) string {
	return fmt.Sprintf("%s%d/", r.path, id)
}
