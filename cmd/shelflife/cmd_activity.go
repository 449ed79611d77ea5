package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

func newActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Audit trail",
	}

	var params models.ActivityListParams
	var action string
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Page through the activity log (admins and editors)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			if _, err := a.require(cmd.Context(), models.User.CanViewActivity); err != nil {
				return err
			}
			params.Action = models.ActivityAction(action)
			page, err := a.queries.ActivityLogs(cmd.Context(), params)
			if err != nil {
				return err
			}
			printActivity(a.out, page.Results)
			fmt.Fprintf(a.out, "\n%d entries\n", page.Count)
			return nil
		},
	}
	f := logs.Flags()
	f.IntVar(&params.Page, "page", 1, "page number")
	f.StringVar(&action, "action", "", "one of upload, download, view, edit, delete, share")
	f.Int64Var(&params.UserID, "user", 0, "user id")
	f.StringVar(&params.AssetID, "asset", "", "asset id")

	recent := &cobra.Command{
		Use:   "recent [limit]",
		Short: "Latest activity",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			limit := 10
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("limit must be a positive number")
				}
				limit = n
			}
			entries, err := a.queries.RecentActivity(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printActivity(a.out, entries)
			return nil
		},
	}

	cmd.AddCommand(logs, recent)
	return cmd
}
