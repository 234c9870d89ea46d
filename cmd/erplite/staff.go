package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus-qen/erplite/internal/erp"
	"github.com/marcus-qen/erplite/internal/permissions"
)

const (
	employeesPage   = "/employees"
	permissionsPage = "/settings/permissions"
)

func newEmployeesCmd(a *app) *cobra.Command {
	cmd := resourceCmd[erp.Employee]{
		use:      "employees",
		aliases:  []string{"funcionarios"},
		short:    "Manage employees",
		page:     employeesPage,
		resource: func(a *app) crud[erp.Employee] { return a.erp.Employees },
		headers:  []string{"ID", "NAME", "EMAIL", "JOB TITLE", "ACCESS"},
		row: func(e erp.Employee) []string {
			return []string{
				formatID(e.ID),
				Truncate(e.Name, 32),
				e.Email,
				fallback(e.JobTitle, "-"),
				string(permissions.NormalizeAccessLevel(e.AccessLevel)),
			}
		},
	}.build(a)
	cmd.AddCommand(newRegisterCmd(a), newChangePasswordCmd(a))
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var emp erp.NewEmployee
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new employee account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requirePage(employeesPage); err != nil {
				return err
			}
			if emp.Name == "" || emp.Email == "" || emp.Password == "" {
				return fmt.Errorf("--name, --email and --password are required")
			}
			created, err := a.erp.Employees.Register(cmd.Context(), emp)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Registered %s (id %d)\n", created.Email, created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&emp.Name, "name", "", "full name")
	cmd.Flags().StringVar(&emp.Email, "email", "", "login email")
	cmd.Flags().StringVar(&emp.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&emp.JobTitle, "job-title", "", "job title")
	cmd.Flags().StringVar(&emp.AccessLevel, "access-level", "usuario", "access level (admin or usuario)")
	return cmd
}

func newChangePasswordCmd(a *app) *cobra.Command {
	var oldPassword, newPassword string
	cmd := &cobra.Command{
		Use:   "password ID",
		Short: "Change an employee's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			empID, err := parseID(args[0])
			if err != nil {
				return err
			}
			// Users may change their own password from the settings page.
			self := a.ctrl.User() != nil && a.ctrl.User().ID == empID
			page := employeesPage
			if self {
				page = "/settings/change-password"
			}
			if err := a.requirePage(page); err != nil {
				return err
			}
			if newPassword == "" {
				return fmt.Errorf("--new is required")
			}
			if err := a.erp.Employees.ChangePassword(cmd.Context(), empID, oldPassword, newPassword); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Password changed.")
			return nil
		},
	}
	cmd.Flags().StringVar(&oldPassword, "old", "", "current password")
	cmd.Flags().StringVar(&newPassword, "new", "", "new password")
	return cmd
}

func newPermissionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "View or change an employee's granular permissions",
	}

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show an employee's permissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			empID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.requirePage(permissionsPage); err != nil {
				return err
			}
			g, err := a.erp.Employees.Permissions(cmd.Context(), empID)
			if err != nil {
				return err
			}
			return printGranular(a, cmd, g)
		},
	}

	set := &cobra.Command{
		Use:   "set ID CAPABILITY=BOOL...",
		Short: "Grant or revoke capabilities, e.g. vendas=true produtos=false",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			empID, err := parseID(args[0])
			if err != nil {
				return err
			}
			changes, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			if err := a.requirePage(permissionsPage); err != nil {
				return err
			}

			g, err := a.erp.Employees.Permissions(cmd.Context(), empID)
			if err != nil {
				return err
			}
			for c, v := range changes {
				g.Set(c, v)
			}
			emp, err := a.erp.Employees.SetPermissions(cmd.Context(), empID, g)
			if err != nil {
				return err
			}
			return printGranular(a, cmd, permissions.ParseGranular(emp.UIPermissions, permissions.AllowByDefault))
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}

func parseAssignments(args []string) (map[permissions.Capability]bool, error) {
	out := make(map[permissions.Capability]bool, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected CAPABILITY=BOOL, got %q", arg)
		}
		c, ok := permissions.ParseCapability(name)
		if !ok {
			return nil, fmt.Errorf("unknown capability %q", name)
		}
		v, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %q", name, value)
		}
		out[c] = v
	}
	return out, nil
}

func printGranular(a *app, cmd *cobra.Command, g permissions.Granular) error {
	out := cmd.OutOrStdout()
	if a.output != "table" {
		return a.print(out, g)
	}
	rows := make([][]string, 0, len(permissions.Capabilities))
	for _, c := range permissions.Capabilities {
		rows = append(rows, []string{string(c), ColorAllowed(g.Get(c))})
	}
	RenderTable(out, []string{"CAPABILITY", "ALLOWED"}, rows)
	return nil
}

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the headline counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requirePage("/dashboard"); err != nil {
				return err
			}
			stats, err := a.erp.Dashboard(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.output != "table" {
				return a.print(out, stats)
			}
			RenderTable(out, []string{"METRIC", "VALUE"}, [][]string{
				{"Sales this month", "R$ " + stats.MonthlySales.String()},
				{"New clients", strconv.Itoa(stats.NewClients)},
				{"Orders", strconv.Itoa(stats.TotalOrders)},
				{"Average ticket", "R$ " + stats.AverageTicket.String()},
				{"Sales growth", fmt.Sprintf("%.1f%%", stats.SalesGrowth)},
				{"Client growth", fmt.Sprintf("%.1f%%", stats.ClientsGrowth)},
			})
			return nil
		},
	}
}

func newNotificationsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "Show low-stock alerts and recent sales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			items, err := a.erp.Notifications(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.output != "table" {
				return a.print(out, items)
			}
			rows := make([][]string, 0, len(items))
			for _, n := range items {
				rows = append(rows, []string{n.Time.Local().Format("2006-01-02 15:04"), string(n.Type), n.Title, n.Description})
			}
			RenderTable(out, []string{"TIME", "TYPE", "TITLE", "DESCRIPTION"}, rows)
			return nil
		},
	}
}
