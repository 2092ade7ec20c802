package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kohlkopf/kohlkopf/internal/concert"
)

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a concert and enrich its artist",
		Args:  cobra.ExactArgs(1),
		RunE:  runAdd,
	}
	cmd.Flags().String("venue", "", "Venue name")
	cmd.Flags().String("date", "", "Date (YYYY-MM-DD)")
	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	venue, _ := cmd.Flags().GetString("venue")
	date, _ := cmd.Flags().GetString("date")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	c := &concert.Concert{Title: args[0], Venue: venue, Date: date}
	if err := a.concerts.Create(cmd.Context(), c); err != nil {
		return err
	}
	a.enrich(cmd.Context(), c, false)
	if err := a.concerts.Update(cmd.Context(), c); err != nil {
		return fmt.Errorf("saving enrichment: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Added %s %q (%s)\n", c.ID, c.Title, enrichmentState(c))
	return nil
}

func newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Change a concert's title and re-enrich when it changed",
		Args:  cobra.ExactArgs(2),
		RunE:  runRename,
	}
}

func runRename(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.concerts.GetByID(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	title := strings.TrimSpace(args[1])
	if title == c.Title {
		fmt.Fprintln(cmd.OutOrStdout(), "Title unchanged")
		return nil
	}

	// Re-enrichment deletes the old image, so the new title must be valid
	// before anything is touched.
	c.Title = title
	if err := concert.Validate(c); err != nil {
		return err
	}
	a.enrich(cmd.Context(), c, true)
	if err := a.concerts.Update(cmd.Context(), c); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q (%s)\n", c.ID, c.Title, enrichmentState(c))
	return nil
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a concert and its artist image",
		Args:  cobra.ExactArgs(1),
		RunE:  runRm,
	}
}

func runRm(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.concerts.GetByID(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	a.enricher.DeleteImage(c.Artist.Image)
	if err := a.concerts.Delete(cmd.Context(), c.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %q\n", c.ID, c.Title)
	return nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List concerts",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	concerts, err := a.concerts.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(concerts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No concerts")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTITLE\tVENUE\tGENRES\tENRICHMENT")
	for i := range concerts {
		c := &concerts[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, orDash(c.Date), c.Title, orDash(c.Venue),
			orDash(strings.Join(c.Artist.Genres, ", ")), enrichmentState(c))
	}
	return tw.Flush()
}

// enrichmentState summarizes which artist fields are set.
func enrichmentState(c *concert.Concert) string {
	var parts []string
	if c.Artist.MBID != "" {
		parts = append(parts, "MBID")
	}
	if len(c.Artist.Genres) > 0 {
		parts = append(parts, "genres")
	}
	if c.Artist.Description != "" {
		parts = append(parts, "description")
	}
	if c.Artist.Image != "" {
		parts = append(parts, "image")
	}
	if len(parts) == 0 {
		return "no data"
	}
	return strings.Join(parts, "+")
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
