package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gokuthong/ShelfLife-DAM/internal/apiclient"
)

type appKey struct{}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "shelflife",
		Short:         "ShelfLife digital asset manager client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), configFile, out, errOut)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return appFrom(cmd).Close()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./shelflife.yaml)")

	root.AddCommand(
		newLoginCmd(),
		newRegisterCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newPasswdCmd(),
		newAssetsCmd(),
		newCommentsCmd(),
		newActivityCmd(),
		newUsersCmd(),
		newUICmd(),
		newPreviewCmd(),
		newWatchCmd(),
	)

	// Errors print as the user-facing message, the same text a view shows.
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return err })
	wrapErrors(root, errOut)
	return root
}

func wrapErrors(cmd *cobra.Command, errOut io.Writer) {
	for _, c := range cmd.Commands() {
		wrapErrors(c, errOut)
	}
	if cmd.RunE == nil {
		return
	}
	run := cmd.RunE
	cmd.RunE = func(c *cobra.Command, args []string) error {
		err := run(c, args)
		if err != nil {
			fmt.Fprintln(errOut, "Error:", apiclient.Message(err))
		}
		return err
	}
}

func appFrom(cmd *cobra.Command) *app {
	return cmd.Context().Value(appKey{}).(*app)
}
