package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gokuthong/ShelfLife-DAM/internal/models"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func ownerName(u *models.User) string {
	if u == nil {
		return "-"
	}
	return u.DisplayName()
}

func printAssets(w io.Writer, assets []models.Asset) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tSIZE\tTAGS\tOWNER\tCREATED")
	for _, a := range assets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.AssetID, a.Title, a.FileType, formatSize(a.FileSize),
			strings.Join(a.Tags, ","), ownerName(a.User), formatTime(a.CreatedAt))
	}
	_ = tw.Flush()
}

func printAsset(w io.Writer, a models.Asset) {
	tw := table(w)
	fmt.Fprintf(tw, "ID:\t%s\n", a.AssetID)
	fmt.Fprintf(tw, "Title:\t%s\n", a.Title)
	fmt.Fprintf(tw, "Description:\t%s\n", a.Description)
	fmt.Fprintf(tw, "Type:\t%s (%s)\n", a.FileType, a.MimeType)
	fmt.Fprintf(tw, "File:\t%s, %s\n", a.File, formatSize(a.FileSize))
	fmt.Fprintf(tw, "URL:\t%s\n", a.FileURL)
	fmt.Fprintf(tw, "Tags:\t%s\n", strings.Join(a.Tags, ", "))
	fmt.Fprintf(tw, "Owner:\t%s\n", ownerName(a.User))
	fmt.Fprintf(tw, "Created:\t%s\n", formatTime(a.CreatedAt))
	fmt.Fprintf(tw, "Updated:\t%s\n", formatTime(a.UpdatedAt))
	_ = tw.Flush()
}

func printUsers(w io.Writer, users []models.User) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tEMAIL\tROLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.DisplayName(), u.Email, u.Role)
	}
	_ = tw.Flush()
}

func printActivity(w io.Writer, entries []models.ActivityLogEntry) {
	tw := table(w)
	fmt.Fprintln(tw, "TIME\tACTION\tUSER\tASSET")
	for _, e := range entries {
		asset := "-"
		if e.Asset != nil {
			asset = e.Asset.Title
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", formatTime(e.Timestamp), e.Action, ownerName(e.User), asset)
	}
	_ = tw.Flush()
}

func printComments(w io.Writer, comments []models.Comment) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tAUTHOR\tWHEN\tCOMMENT")
	for _, c := range comments {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.CommentID, ownerName(c.User), formatTime(c.CreatedAt), c.Content)
	}
	_ = tw.Flush()
}
