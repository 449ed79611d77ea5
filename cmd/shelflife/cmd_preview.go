package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gokuthong/ShelfLife-DAM/internal/models"
	"github.com/gokuthong/ShelfLife-DAM/internal/preview"
)

func newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <asset-id>",
		Short: "Load a 3D asset and print how it would be framed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			asset, err := a.queries.Asset(ctx, args[0])
			if err != nil {
				return err
			}
			if asset.FileType != models.FileType3D {
				return fmt.Errorf("%s is a %s asset, preview needs a 3D model", asset.Title, asset.FileType)
			}
			if asset.FileURL == "" {
				return fmt.Errorf("%s has no file", asset.Title)
			}

			viewer, err := preview.NewViewer(preview.OptionsFromConfig(a.cfg.Preview, preview.TextSurfaceFactory(a.out), a.log))
			if err != nil {
				return err
			}
			defer viewer.Close()

			if err := viewer.Load(ctx, asset.FileURL, asset.File); err != nil {
				if msg := viewer.State().Error; msg != "" {
					return errors.New(msg)
				}
				return err
			}
			return nil
		},
	}
}
