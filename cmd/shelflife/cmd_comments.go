package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gokuthong/ShelfLife-DAM/internal/query"
)

func newCommentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Read and write asset comments",
	}

	list := &cobra.Command{
		Use:   "list <asset-id>",
		Short: "List comments on an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			comments, err := a.queries.Comments(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printComments(a.out, comments)
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <asset-id> <text>...",
		Short: "Comment on an asset",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			comment, err := a.queries.CreateComment().MutateAsync(cmd.Context(), query.NewComment{
				AssetID: args[0],
				Content: strings.Join(args[1:], " "),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Added comment %s\n", comment.CommentID)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <asset-id> <comment-id>",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			user, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			comments, err := a.queries.Comments(ctx, args[0])
			if err != nil {
				return err
			}
			for _, c := range comments {
				if c.CommentID == args[1] && !user.CanDeleteComment(c) {
					return errNotPermitted
				}
			}

			if _, err := a.queries.DeleteComment(args[0]).MutateAsync(ctx, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted comment %s\n", args[1])
			return nil
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}
