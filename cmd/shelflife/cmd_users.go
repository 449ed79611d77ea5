package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gokuthong/ShelfLife-DAM/internal/models"
	"github.com/gokuthong/ShelfLife-DAM/internal/query"
)

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return id, nil
}

var (
	errOwnRole    = errors.New("you cannot change your own role")
	errOwnAccount = errors.New("you cannot delete your own account")
)

// rejectSelf stops an admin from acting on their own account; users
// PersistentPreRunE has already loaded the signed-in user.
func rejectSelf(a *app, id int64, err error) error {
	if me := a.store.State().Auth.User; me != nil && me.ID == id {
		return err
	}
	return nil
}

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts (admins only)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			_, err := appFrom(cmd).require(cmd.Context(), models.User.CanManageUsers)
			return err
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			users, err := a.queries.Users(cmd.Context())
			if err != nil {
				return err
			}
			printUsers(a.out, users)
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <user-id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			user, err := a.api.Users.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			printUsers(a.out, []models.User{*user})
			return nil
		},
	}

	setRole := &cobra.Command{
		Use:   "set-role <user-id> <admin|editor|viewer>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			if err := rejectSelf(a, id, errOwnRole); err != nil {
				return err
			}
			role := models.UserRole(args[1])
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", args[1])
			}
			user, err := a.queries.UpdateUser().MutateAsync(cmd.Context(), query.UserUpdate{
				ID:     id,
				Update: models.UserUpdate{Role: &role},
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s is now %s\n", user.Username, user.Role)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			if err := rejectSelf(a, id, errOwnAccount); err != nil {
				return err
			}
			if _, err := a.queries.DeleteUser().MutateAsync(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted user %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(list, get, setRole, del)
	return cmd
}
