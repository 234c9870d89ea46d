package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus-qen/erplite/internal/guard"
	"github.com/marcus-qen/erplite/internal/permissions"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				v, err := prompt(cmd.ErrOrStderr(), in, "Email: ")
				if err != nil {
					return err
				}
				email = v
			}
			if password == "" {
				password = os.Getenv("ERPLITE_PASSWORD")
			}
			if password == "" {
				v, err := prompt(cmd.ErrOrStderr(), in, "Password: ")
				if err != nil {
					return err
				}
				password = v
			}

			if err := a.ctrl.Login(cmd.Context(), email, password); err != nil {
				return err
			}

			u := a.ctrl.User()
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Logged in as %s (%s)\n", u.DisplayName(), accessLabel(permissions.IsAdmin(u)))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or ERPLITE_PASSWORD)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ctrl.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

type whoAmI struct {
	ID          int64                  `json:"id"`
	Name        string                 `json:"name"`
	Email       string                 `json:"email"`
	JobTitle    string                 `json:"job_title,omitempty"`
	AccessLevel string                 `json:"access_level"`
	Permissions permissions.Granular   `json:"permissions"`
	Menu        []permissions.MenuItem `json:"menu"`
}

func newWhoAmICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in identity and its effective permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			u := a.ctrl.User()
			admin := permissions.IsAdmin(u)

			perms := permissions.ParseGranular(u.UIPermissions, permissions.DenyByDefault)
			if admin {
				perms = permissions.NewGranular(true)
			}
			info := whoAmI{
				ID:          u.ID,
				Name:        u.Name,
				Email:       u.Email,
				JobTitle:    u.JobTitle,
				AccessLevel: string(permissions.NormalizeAccessLevel(u.AccessLevel)),
				Permissions: perms,
				Menu:        permissions.VisibleMenu(u),
			}

			out := cmd.OutOrStdout()
			if a.output != "table" {
				return a.print(out, info)
			}

			fmt.Fprintln(out, "👤 Authenticated identity")
			fmt.Fprintln(out, "────────────────────────")
			fmt.Fprintf(out, "Name:         %s\n", fallback(info.Name, "(none)"))
			fmt.Fprintf(out, "Email:        %s\n", fallback(info.Email, "(none)"))
			fmt.Fprintf(out, "Job title:    %s\n", fallback(info.JobTitle, "(none)"))
			fmt.Fprintf(out, "Access level: %s\n", info.AccessLevel)
			fmt.Fprintln(out)

			rows := make([][]string, 0, len(permissions.Capabilities))
			for _, c := range permissions.Capabilities {
				rows = append(rows, []string{string(c), yesNo(perms.Get(c))})
			}
			RenderTable(out, []string{"CAPABILITY", "ALLOWED"}, rows)
			return nil
		},
	}
}

func newCanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "can PATH...",
		Short: "Check whether the current session may open the given pages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			type result struct {
				Path     string `json:"path"`
				Allowed  bool   `json:"allowed"`
				Redirect string `json:"redirect,omitempty"`
			}
			results := make([]result, 0, len(args))
			for _, p := range args {
				d := guard.Check(a.ctrl, p)
				results = append(results, result{Path: p, Allowed: d.Allowed, Redirect: d.Redirect})
			}

			out := cmd.OutOrStdout()
			if a.output != "table" {
				return a.print(out, results)
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Path, ColorAllowed(r.Allowed), fallback(r.Redirect, "-")})
			}
			RenderTable(out, []string{"PATH", "ALLOWED", "REDIRECT"}, rows)
			return nil
		},
	}
}

func newMenuCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "List the sidebar entries visible to the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			items := permissions.VisibleMenu(a.ctrl.User())

			out := cmd.OutOrStdout()
			if a.output != "table" {
				return a.print(out, items)
			}
			rows := make([][]string, 0, len(items))
			for _, it := range items {
				rows = append(rows, []string{it.Title, it.Path})
			}
			RenderTable(out, []string{"TITLE", "PATH"}, rows)
			return nil
		},
	}
}

func prompt(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

func accessLabel(admin bool) string {
	if admin {
		return "admin"
	}
	return "user"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
