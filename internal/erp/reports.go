package erp

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// LowStockThreshold is the stock level at or below which a product is
	// reported.
	LowStockThreshold = 5
	// RecentSalesLimit caps how many sales appear as notifications.
	RecentSalesLimit = 10
)

// API groups every entity resource over one Requester.
type API struct {
	Clients        *Resource[Client]
	Employees      *Employees
	Suppliers      *Resource[Supplier]
	Products       *Resource[Product]
	Sales          *Resource[Sale]
	StockMovements *Resource[StockMovement]

	api Requester
	now func() time.Time
}

// New binds all resources to api.
func New(api Requester) *API {
	return &API{
		Clients:        NewResource[Client](api, ClientsPath),
		Employees:      NewEmployees(api),
		Suppliers:      NewResource[Supplier](api, SuppliersPath),
		Products:       NewResource[Product](api, ProductsPath),
		Sales:          NewResource[Sale](api, SalesPath),
		StockMovements: NewResource[StockMovement](api, MovementsPath),
		api:            api,
		now:            time.Now,
	}
}

// Dashboard fetches the headline counters.
func (a *API) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var out DashboardStats
	if err := a.api.Get(ctx, DashboardPath, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Report fetches the consolidated sales report. A zero from or to leaves that
// end of the date range open.
func (a *API) Report(ctx context.Context, from, to time.Time) (*SalesReport, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("data_inicio", from.Format(time.DateOnly))
	}
	if !to.IsZero() {
		q.Set("data_fim", to.Format(time.DateOnly))
	}
	path := ReportPath
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out SalesReport
	if err := a.api.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StockStats fetches the inventory statistics.
func (a *API) StockStats(ctx context.Context) (*StockStats, error) {
	var out StockStats
	if err := a.api.Get(ctx, StockStatsPath, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Notifications derives alerts from the first page of products and sales:
// one warning per product with low stock and one entry for each of the most
// recent sales, newest first.
func (a *API) Notifications(ctx context.Context) ([]Notification, error) {
	var (
		products *Page[Product]
		sales    *Page[Sale]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = a.Products.List(gctx, 1, "")
		return err
	})
	g.Go(func() error {
		var err error
		sales, err = a.Sales.List(gctx, 1, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := a.now()
	out := make([]Notification, 0, len(products.Results)+RecentSalesLimit)
	for _, p := range products.Results {
		stock, ok := p.StockLevel()
		if !ok || stock > LowStockThreshold {
			continue
		}
		out = append(out, Notification{
			ID:          "low_stock_" + strconv.FormatInt(p.ID, 10),
			Type:        NotificationWarning,
			Title:       "Low stock",
			Description: fmt.Sprintf("Product '%s' is running low (%d)", p.Label(), stock),
			Time:        now,
		})
	}

	recent := sales.Results
	if len(recent) > RecentSalesLimit {
		recent = recent[:RecentSalesLimit]
	}
	for _, s := range recent {
		ts, err := s.Time()
		if err != nil {
			ts = time.Time{}
		}
		out = append(out, Notification{
			ID:          "sale_" + strconv.FormatInt(s.ID, 10),
			Type:        NotificationSuccess,
			Title:       "New sale",
			Description: fmt.Sprintf("Sale #%d total R$ %s", s.ID, s.Total),
			Time:        ts,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.After(out[j].Time)
	})
	return out, nil
}
