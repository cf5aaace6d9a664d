package main

import (
	"bufio"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/99minutos/storefront/internal/core/domain"
)

// readSecret returns v, or a line read from stdin when v is "-".
func readSecret(cmd *cobra.Command, v string) (string, error) {
	if v != "-" {
		return v, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password on stdin")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and merge the guest cart into your account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readSecret(cmd, password)
			if err != nil {
				return err
			}
			id, err := c.session.Identity.Login(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			c.printf("signed in as %s (%s)\n", id.Name(), id.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "-", `password, or "-" to read it from stdin`)
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var in domain.RegisterInput
	var role, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readSecret(cmd, password)
			if err != nil {
				return err
			}
			in.Password, in.Password2, in.Role = pw, pw, domain.Role(role)
			id, err := c.session.Identity.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			c.printf("registered %s (%s)\n", id.Email, id.Role)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "", "account email")
	f.StringVar(&in.FirstName, "first-name", "", "first name")
	f.StringVar(&in.LastName, "last-name", "", "last name")
	f.StringVar(&in.Phone, "phone", "", "phone number")
	f.StringVar(&role, "role", string(domain.RoleCustomer), "customer or vendor")
	f.StringVar(&password, "password", "-", `password, or "-" to read it from stdin`)
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.session.Identity.Logout(cmd.Context()); err != nil {
				return err
			}
			c.printf("signed out\n")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account, checked against the backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.session.Identity.Verify(cmd.Context()); err != nil && !errors.Is(err, domain.ErrRequestFailed) && !errors.Is(err, domain.ErrSessionExpired) {
				return err
			}
			st := c.session.Identity.State()
			if !st.IsAuthenticated() {
				c.printf("not signed in\n")
				return nil
			}
			return c.print(st.Identity)
		},
	}
}
