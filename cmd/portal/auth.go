package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/career-compass/internal/domain"
	"github.com/honeycarbs/career-compass/pkg/portalapi"
)

// readSecret takes the flag value, then PORTAL_PASSWORD, then one line of stdin
func readSecret(in io.Reader, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv("PORTAL_PASSWORD"); v != "" {
		return v, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("password is required (--password, PORTAL_PASSWORD or stdin)")
	}
	return line, nil
}

func (c *cli) loginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username|email>",
		Short: "Sign in and keep the session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			core, err := c.coreFor(ctx)
			if err != nil {
				return err
			}
			secret, err := readSecret(cmd.InOrStdin(), password)
			if err != nil {
				return err
			}
			user, err := core.Auth.Login(ctx, args[0], secret)
			if err != nil {
				return err
			}
			return c.emit(cmd.OutOrStdout(), user, func(w io.Writer) error {
				return success(w, "signed in as %s", user.Username)
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prefer PORTAL_PASSWORD or stdin)")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var (
		password string
		email    string
	)
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create a portal account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			core, err := c.coreFor(ctx)
			if err != nil {
				return err
			}
			secret, err := readSecret(cmd.InOrStdin(), password)
			if err != nil {
				return err
			}
			user, err := core.Auth.Register(ctx, portalapi.Registration{
				Username: strings.TrimSpace(args[0]),
				Password: secret,
				Email:    strings.TrimSpace(email),
			})
			if err != nil {
				return err
			}
			return c.emit(cmd.OutOrStdout(), user, func(w io.Writer) error {
				return success(w, "registered %s; run `portal login %s` to sign in", user.Username, user.Username)
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prefer PORTAL_PASSWORD or stdin)")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session token and cached profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := c.coreFor(cmd.Context())
			if err != nil {
				return err
			}
			if err := core.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			return success(cmd.OutOrStdout(), "signed out")
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			core, err := c.signedIn(ctx)
			if err != nil {
				return err
			}

			user, cached := core.Session.User()
			if refresh || !cached {
				if user, err = core.Auth.FetchUser(ctx); err != nil {
					return err
				}
			}
			return c.emit(cmd.OutOrStdout(), user, func(w io.Writer) error {
				return renderUser(w, user)
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "reload the profile from the backend")
	return cmd
}

func renderUser(w io.Writer, u domain.UserInfo) error {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(u.Username) + "\n")
	for _, f := range [][2]string{{"ID", u.ID.String()}, {"Email", u.Email}, {"Role", u.Role}, {"Status", u.Status}} {
		if f[1] != "" {
			sb.WriteString(labelStyle.Render(f[0]) + f[1] + "\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
