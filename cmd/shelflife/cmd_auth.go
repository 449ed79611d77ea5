package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

// readSecret takes a value from the flag or, when empty, one line of stdin.
func readSecret(cmd *cobra.Command, value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt+": ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(prompt), err)
	}
	return strings.TrimSpace(line), nil
}

func newLoginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			pass, err := readSecret(cmd, password, "Password")
			if err != nil {
				return err
			}
			if username == "" || pass == "" {
				return errors.New("username and password are required")
			}
			if err := a.store.LoginUser(cmd.Context(), models.Credentials{Username: username, Password: pass}); err != nil {
				return err
			}
			user := a.store.State().Auth.User
			fmt.Fprintf(a.out, "Signed in as %s (%s)\n", user.DisplayName(), user.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin when empty)")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var reg models.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			pass, err := readSecret(cmd, reg.Password, "Password")
			if err != nil {
				return err
			}
			reg.Password = pass
			if reg.Password2 == "" {
				reg.Password2 = pass
			}
			if err := a.store.RegisterUser(cmd.Context(), reg); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Registered %s\n", reg.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&reg.Username, "username", "u", "", "username")
	cmd.Flags().StringVar(&reg.Email, "email", "", "email address")
	cmd.Flags().StringVarP(&reg.Password, "password", "p", "", "password (read from stdin when empty)")
	cmd.Flags().StringVar(&reg.Password2, "confirm", "", "password confirmation (defaults to --password)")
	cmd.Flags().StringVar(&reg.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&reg.LastName, "last-name", "", "last name")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			if err := a.store.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			user, err := a.currentUser(cmd.Context())
			if err != nil {
				return err
			}
			tw := table(a.out)
			fmt.Fprintf(tw, "Username:\t%s\n", user.Username)
			fmt.Fprintf(tw, "Name:\t%s\n", user.DisplayName())
			fmt.Fprintf(tw, "Email:\t%s\n", user.Email)
			fmt.Fprintf(tw, "Role:\t%s\n", user.Role)
			return tw.Flush()
		},
	}
}

func newPasswdCmd() *cobra.Command {
	var change models.PasswordChange
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			if change.NewPassword2 == "" {
				change.NewPassword2 = change.NewPassword
			}
			msg, err := a.api.Auth.ChangePassword(cmd.Context(), change)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&change.OldPassword, "old", "", "current password")
	cmd.Flags().StringVar(&change.NewPassword, "new", "", "new password")
	cmd.Flags().StringVar(&change.NewPassword2, "confirm", "", "new password confirmation")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}
