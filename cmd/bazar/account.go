package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
)

// パスワードはフラグが無ければ環境変数から読む
const passwordEnv = "BAZAR_PASSWORD"

func passwordFrom(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(passwordEnv)
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.session.Login(cmd.Context(), email, passwordFrom(password)); err != nil {
				return err
			}
			u := c.app.session.Identity()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s).\n", u.Name, u.Role)
			return err
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password (or "+passwordEnv+")")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var name, email, password, role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := c.app.session.Register(cmd.Context(), name, email, passwordFrom(password), model.Role(role))
			if err != nil {
				return err
			}
			u := c.app.session.Identity()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! Signed in as %s.\n", u.Name, u.Role)
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password, at least 6 characters (or "+passwordEnv+")")
	cmd.Flags().StringVar(&role, "role", string(model.RoleCustomer), "Account role (customer or admin)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.session.Logout(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return err
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			u := c.app.session.Identity()
			if u == nil {
				_, err := fmt.Fprintln(out, "Not signed in.")
				return err
			}
			_, err := fmt.Fprintf(out, "%s <%s> (%s)\n", u.Name, u.Email, u.Role)
			return err
		},
	}
}
