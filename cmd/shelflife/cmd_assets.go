package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gokuthong/ShelfLife-DAM/internal/api"
	"github.com/gokuthong/ShelfLife-DAM/internal/apiclient"
	"github.com/gokuthong/ShelfLife-DAM/internal/models"
	"github.com/gokuthong/ShelfLife-DAM/internal/query"
)

func newAssetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Browse and manage assets",
	}
	cmd.AddCommand(
		newAssetsListCmd(),
		newAssetsGetCmd(),
		newAssetsUploadCmd(),
		newAssetsUpdateCmd(),
		newAssetsDeleteCmd(),
		newAssetsSearchCmd(),
	)
	return cmd
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q, use YYYY-MM-DD", raw)
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func newAssetsListCmd() *cobra.Command {
	var (
		page, pageSize       int
		search, fileType     string
		tags, from, to, sort string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			dateFrom, err := parseDate(from)
			if err != nil {
				return err
			}
			dateTo, err := parseDate(to)
			if err != nil {
				return err
			}

			a.store.SetSearchQuery(search)
			a.store.SetFilters(models.AssetFilters{
				FileType: models.FileType(fileType),
				Tags:     splitTags(tags),
				DateFrom: dateFrom,
				DateTo:   dateTo,
			})
			a.store.SetCurrentPage(page)

			params := a.store.State().Assets.ListParams()
			params.PageSize = pageSize
			params.Ordering = sort
			if err := a.store.FetchAssets(cmd.Context(), params); err != nil {
				return err
			}

			s := a.store.State().Assets
			printAssets(a.out, s.Assets)
			fmt.Fprintf(a.out, "\nPage %d, %d of %d assets\n", s.CurrentPage, len(s.Assets), s.TotalCount)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&page, "page", 1, "page number")
	f.IntVar(&pageSize, "page-size", 20, "assets per page")
	f.StringVarP(&search, "search", "s", "", "search title, description and tags")
	f.StringVarP(&fileType, "type", "t", "", "file type (image, video, pdf, doc, audio, 3d, other)")
	f.StringVar(&tags, "tags", "", "comma-separated tags")
	f.StringVar(&from, "from", "", "created on or after (YYYY-MM-DD)")
	f.StringVar(&to, "to", "", "created on or before (YYYY-MM-DD)")
	f.StringVar(&sort, "sort", "", "ordering, e.g. -created_at, title, file_size")
	return cmd
}

func newAssetsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <asset-id>",
		Short: "Show one asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if err := a.store.FetchAssetByID(cmd.Context(), args[0]); err != nil {
				return err
			}
			printAsset(a.out, *a.store.State().Assets.CurrentAsset)
			return nil
		},
	}
}

func newAssetsUploadCmd() *cobra.Command {
	var (
		title, description, fileType, tags string
		concurrency                        int
	)
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload one or more files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if _, err := a.require(cmd.Context(), models.User.CanUpload); err != nil {
				return err
			}

			uploads := make([]api.Upload, 0, len(args))
			for _, path := range args {
				up := api.Upload{
					FileName:    filepath.Base(path),
					Description: description,
					FileType:    models.FileType(fileType),
					Tags:        splitTags(tags),
					Open:        apiclient.OpenPath(path),
				}
				if len(args) == 1 {
					up.Title = title
				}
				uploads = append(uploads, up)
			}

			failed := 0
			for _, r := range a.api.Assets.BulkUpload(cmd.Context(), uploads, concurrency) {
				if r.Err != nil {
					failed++
					fmt.Fprintf(a.errOut, "%s: %s\n", r.FileName, apiclient.Message(r.Err))
					continue
				}
				fmt.Fprintf(a.out, "%s: uploaded as %s (%s)\n", r.FileName, r.Asset.AssetID, r.Asset.FileType)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d uploads failed", failed, len(uploads))
			}
			a.cache.Invalidate(query.ResourceAssets)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "title (single file only; defaults to the file name)")
	f.StringVar(&description, "description", "", "description")
	f.StringVarP(&fileType, "type", "t", "", "file type (inferred from the extension when empty)")
	f.StringVar(&tags, "tags", "", "comma-separated tags")
	f.IntVarP(&concurrency, "concurrency", "c", 3, "parallel uploads")
	return cmd
}

func newAssetsUpdateCmd() *cobra.Command {
	var title, description, tags string
	cmd := &cobra.Command{
		Use:   "update <asset-id>",
		Short: "Edit title, description or tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			user, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			existing, err := a.queries.Asset(ctx, args[0])
			if err != nil {
				return err
			}
			if !user.CanEdit(*existing) {
				return errNotPermitted
			}

			var patch models.AssetPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("tags") {
				patch.Tags = splitTags(tags)
				if patch.Tags == nil {
					patch.Tags = []string{}
				}
			}

			updated, err := a.queries.UpdateAsset().MutateAsync(ctx, query.AssetUpdate{ID: args[0], Patch: patch})
			if err != nil {
				return err
			}
			printAsset(a.out, *updated)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "new title")
	f.StringVar(&description, "description", "", "new description")
	f.StringVar(&tags, "tags", "", "comma-separated tags, replacing the current ones")
	return cmd
}

func newAssetsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <asset-id>",
		Short: "Delete an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			user, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			if err := a.store.FetchAssetByID(ctx, args[0]); err != nil {
				return err
			}
			if !user.CanDeleteAsset(*a.store.State().Assets.CurrentAsset) {
				return errNotPermitted
			}
			if err := a.store.DeleteAsset(ctx, args[0]); err != nil {
				return err
			}
			a.cache.Invalidate(query.ResourceAssets)
			fmt.Fprintf(a.out, "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newAssetsSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search assets by title, description and tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			results, err := a.api.Assets.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printAssets(a.out, results)
			return nil
		},
	}
}
