package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

func newUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Display preferences",
	}

	colorMode := &cobra.Command{
		Use:   "color-mode [light|dark]",
		Short: "Show or set the color mode",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if len(args) == 1 {
				if err := a.store.SetColorMode(cmd.Context(), models.ColorMode(args[0])); err != nil {
					return err
				}
			}
			fmt.Fprintln(a.out, a.store.State().UI.ColorMode)
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle-color-mode",
		Short: "Switch between light and dark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			mode, err := a.store.ToggleColorMode(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, mode)
			return nil
		},
	}

	sidebar := &cobra.Command{
		Use:   "toggle-sidebar",
		Short: "Collapse or expand the sidebar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			if err := a.store.ToggleSidebar(cmd.Context()); err != nil {
				return err
			}
			state := "collapsed"
			if a.store.State().UI.SidebarOpen {
				state = "open"
			}
			fmt.Fprintf(a.out, "sidebar %s\n", state)
			return nil
		},
	}

	cmd.AddCommand(colorMode, toggle, sidebar)
	return cmd
}
