package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marcus-qen/erplite/internal/erp"
	"github.com/marcus-qen/erplite/internal/permissions"
)

// crud is the surface shared by erp.Resource and erp.Employees.
type crud[T any] interface {
	List(ctx context.Context, page int, search string) (*erp.Page[T], error)
	Get(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, body any) (*T, error)
	Update(ctx context.Context, id int64, patch any) (*T, error)
	Delete(ctx context.Context, id int64) error
}

type resourceCmd[T any] struct {
	use     string
	aliases []string
	short   string
	// page is the front-end route whose guard decision gates the command.
	page     string
	resource func(*app) crud[T]
	headers  []string
	row      func(T) []string
	// canWrite, when set, gates create, update and delete.
	canWrite func(*app) error
}

func (rc resourceCmd[T]) build(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     rc.use,
		Aliases: rc.aliases,
		Short:   rc.short,
	}
	cmd.AddCommand(rc.listCmd(a), rc.getCmd(a), rc.createCmd(a), rc.updateCmd(a), rc.deleteCmd(a))
	return cmd
}

func (rc resourceCmd[T]) listCmd(a *app) *cobra.Command {
	var (
		page   int
		search string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records, one page at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requirePage(rc.page); err != nil {
				return err
			}
			res, err := rc.resource(a).List(cmd.Context(), page, search)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.output != "table" {
				return a.print(out, res)
			}
			rows := make([][]string, 0, len(res.Results))
			for _, item := range res.Results {
				rows = append(rows, rc.row(item))
			}
			RenderTable(out, rc.headers, rows)
			more := ""
			if res.HasNext() {
				more = fmt.Sprintf(" (next: --page %d)", page+1)
			}
			fmt.Fprintf(out, "\n%d of %d%s\n", len(res.Results), res.Count, more)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&search, "search", "", "filter term")
	return cmd
}

func (rc resourceCmd[T]) getCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.requirePage(rc.page); err != nil {
				return err
			}
			item, err := rc.resource(a).Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return rc.show(a, cmd, *item)
		},
	}
}

func (rc resourceCmd[T]) createCmd(a *app) *cobra.Command {
	var data, file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a record from JSON fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rc.checkWrite(a); err != nil {
				return err
			}
			body, err := readFields(data, file)
			if err != nil {
				return err
			}
			item, err := rc.resource(a).Create(cmd.Context(), body)
			if err != nil {
				return err
			}
			return rc.show(a, cmd, *item)
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "JSON object with the record fields")
	cmd.Flags().StringVar(&file, "file", "", "file holding the JSON object")
	return cmd
}

func (rc resourceCmd[T]) updateCmd(a *app) *cobra.Command {
	var data, file string
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change some fields of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := rc.checkWrite(a); err != nil {
				return err
			}
			body, err := readFields(data, file)
			if err != nil {
				return err
			}
			item, err := rc.resource(a).Update(cmd.Context(), id, body)
			if err != nil {
				return err
			}
			return rc.show(a, cmd, *item)
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "JSON object with the fields to change")
	cmd.Flags().StringVar(&file, "file", "", "file holding the JSON object")
	return cmd
}

func (rc resourceCmd[T]) deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := rc.checkWrite(a); err != nil {
				return err
			}
			if err := rc.resource(a).Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %d.\n", rc.use, id)
			return nil
		},
	}
}

func (rc resourceCmd[T]) checkWrite(a *app) error {
	if err := a.requirePage(rc.page); err != nil {
		return err
	}
	if rc.canWrite != nil {
		return rc.canWrite(a)
	}
	return nil
}

func (rc resourceCmd[T]) show(a *app, cmd *cobra.Command, item T) error {
	out := cmd.OutOrStdout()
	if a.output != "table" {
		return a.print(out, item)
	}
	RenderTable(out, rc.headers, [][]string{rc.row(item)})
	return nil
}

func newClientsCmd(a *app) *cobra.Command {
	return resourceCmd[erp.Client]{
		use:      "clients",
		aliases:  []string{"clientes"},
		short:    "Manage clients",
		page:     "/clients",
		resource: func(a *app) crud[erp.Client] { return a.erp.Clients },
		headers:  []string{"ID", "NAME", "EMAIL", "PHONE", "CITY"},
		row: func(c erp.Client) []string {
			return []string{formatID(c.ID), Truncate(c.Name, 32), c.Email, fallback(c.Mobile, c.Phone), c.City}
		},
	}.build(a)
}

func newSuppliersCmd(a *app) *cobra.Command {
	return resourceCmd[erp.Supplier]{
		use:      "suppliers",
		aliases:  []string{"fornecedores"},
		short:    "Manage suppliers",
		page:     "/suppliers",
		resource: func(a *app) crud[erp.Supplier] { return a.erp.Suppliers },
		headers:  []string{"ID", "NAME", "CNPJ", "EMAIL", "PHONE"},
		row: func(s erp.Supplier) []string {
			return []string{formatID(s.ID), Truncate(s.Name, 32), s.CNPJ, s.Email, fallback(s.Mobile, s.Phone)}
		},
	}.build(a)
}

func newProductsCmd(a *app) *cobra.Command {
	return resourceCmd[erp.Product]{
		use:      "products",
		aliases:  []string{"produtos"},
		short:    "Manage products",
		page:     "/products",
		resource: func(a *app) crud[erp.Product] { return a.erp.Products },
		headers:  []string{"ID", "NAME", "PRICE", "STOCK", "SUPPLIER"},
		row: func(p erp.Product) []string {
			return []string{formatID(p.ID), Truncate(p.Label(), 40), p.Price.String(), stockCell(p), p.SupplierName}
		},
		canWrite: func(a *app) error {
			if !permissions.CanEditProducts(a.ctrl.User()) {
				return errors.New("only administrators can change products")
			}
			return nil
		},
	}.build(a)
}

func newSalesCmd(a *app) *cobra.Command {
	return resourceCmd[erp.Sale]{
		use:      "sales",
		aliases:  []string{"vendas"},
		short:    "Manage sales",
		page:     "/sales",
		resource: func(a *app) crud[erp.Sale] { return a.erp.Sales },
		headers:  []string{"ID", "DATE", "CLIENT", "SELLER", "TOTAL", "STATUS"},
		row: func(s erp.Sale) []string {
			return []string{formatID(s.ID), s.Date, s.ClientName, s.EmployeeName, s.Total.String(), s.Status}
		},
	}.build(a)
}

func newMovementsCmd(a *app) *cobra.Command {
	return resourceCmd[erp.StockMovement]{
		use:      "movements",
		aliases:  []string{"movimentacoes"},
		short:    "Manage stock movements",
		page:     "/products",
		resource: func(a *app) crud[erp.StockMovement] { return a.erp.StockMovements },
		headers:  []string{"ID", "DATE", "PRODUCT", "TYPE", "QTY"},
		row: func(m erp.StockMovement) []string {
			return []string{formatID(m.ID), m.Date, m.ProductName, m.Type, strconv.Itoa(m.Quantity)}
		},
	}.build(a)
}

func parseID(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return n, nil
}

func stockCell(p erp.Product) string {
	if n, ok := p.StockLevel(); ok {
		return strconv.Itoa(n)
	}
	return "-"
}

func formatID(n int64) string {
	return strconv.FormatInt(n, 10)
}

// readFields decodes the JSON object given inline or in a file.
func readFields(data, file string) (map[string]any, error) {
	raw := []byte(data)
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	if len(raw) == 0 {
		return nil, errors.New("one of --data or --file is required")
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("fields must be a JSON object: %w", err)
	}
	return fields, nil
}
