package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcus-qen/erplite/internal/erp"
)

const reportPage = "/sales/report"

func newReportCmd(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the sales report for an optional date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requirePage(reportPage); err != nil {
				return err
			}
			start, err := parseDay("from", from)
			if err != nil {
				return err
			}
			end, err := parseDay("to", to)
			if err != nil {
				return err
			}
			if !start.IsZero() && !end.IsZero() && end.Before(start) {
				return fmt.Errorf("--to %s is before --from %s", to, from)
			}

			report, err := a.erp.Report(cmd.Context(), start, end)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.output != "table" {
				return a.print(out, report)
			}
			printReport(out, report)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD)")
	cmd.AddCommand(newStockStatsCmd(a))
	return cmd
}

func newStockStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stock",
		Short: "Show inventory statistics and recent stock movements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requirePage(reportPage); err != nil {
				return err
			}
			stats, err := a.erp.StockStats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.output != "table" {
				return a.print(out, stats)
			}
			RenderTable(out, []string{"METRIC", "VALUE"}, [][]string{
				{"Products", strconv.Itoa(stats.TotalProducts)},
				{"Stock value", "R$ " + stats.StockValue.String()},
				{"Out of stock", strconv.Itoa(stats.OutOfStock)},
			})
			if len(stats.RecentMovements) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			var table [][]string
			for _, m := range stats.RecentMovements {
				table = append(table, []string{formatID(m.ID), m.Date, Truncate(m.ProductName, 40), m.Type, strconv.Itoa(m.Quantity)})
			}
			RenderTable(out, []string{"ID", "DATE", "PRODUCT", "TYPE", "QTY"}, table)
			return nil
		},
	}
}

func printReport(out io.Writer, r *erp.SalesReport) {
	RenderTable(out, []string{"METRIC", "VALUE"}, [][]string{
		{"Sales", strconv.Itoa(r.TotalSales)},
		{"Sales value", "R$ " + r.SalesValue.String()},
		{"Clients", strconv.Itoa(r.TotalClients)},
		{"Products", strconv.Itoa(r.TotalProducts)},
		{"Suppliers", strconv.Itoa(r.TotalSuppliers)},
	})

	if len(r.TopClients) > 0 {
		fmt.Fprintln(out)
		var rows [][]string
		for _, c := range r.TopClients {
			rows = append(rows, []string{Truncate(c.ClientName, 30), strconv.Itoa(c.Purchases), "R$ " + c.Value.String()})
		}
		RenderTable(out, []string{"TOP CLIENT", "PURCHASES", "VALUE"}, rows)
	}
	if len(r.TopProducts) > 0 {
		fmt.Fprintln(out)
		var rows [][]string
		for _, p := range r.TopProducts {
			rows = append(rows, []string{Truncate(p.Description, 30), strconv.Itoa(p.Sold), "R$ " + p.Value.String()})
		}
		RenderTable(out, []string{"TOP PRODUCT", "SOLD", "VALUE"}, rows)
	}
	if len(r.LowStock) > 0 {
		fmt.Fprintln(out)
		var rows [][]string
		for _, p := range r.LowStock {
			rows = append(rows, []string{formatID(p.ID), Truncate(p.Description, 30), strconv.Itoa(p.Stock)})
		}
		RenderTable(out, []string{"ID", "LOW STOCK", "QTY"}, rows)
	}
}

func parseDay(flag, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: want YYYY-MM-DD", flag, v)
	}
	return t, nil
}
