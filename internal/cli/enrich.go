package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEnrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich all concerts that have no artist data yet",
		Args:  cobra.NoArgs,
		RunE:  runEnrich,
	}
	cmd.Flags().BoolP("force", "f", false, "Re-enrich all concerts, even those already enriched")
	return cmd
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	concerts, err := a.concerts.List(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Found %d concerts\n", len(concerts))

	var enriched, skipped, noData int
	for i := range concerts {
		if err := ctx.Err(); err != nil {
			return err
		}
		c := &concerts[i]
		if !force && c.Artist.IsEnriched() {
			fmt.Fprintf(out, "Skipping %q (already enriched)\n", c.Title)
			skipped++
			continue
		}

		fmt.Fprintf(out, "Enriching %q... ", c.Title)
		a.enrich(ctx, c, force)
		if err := a.concerts.Update(ctx, c); err != nil {
			return fmt.Errorf("saving %s: %w", c.ID, err)
		}

		if c.Artist.MBID != "" || c.Artist.Image != "" {
			fmt.Fprintln(out, enrichmentState(c))
			enriched++
		} else {
			fmt.Fprintln(out, "no data")
			noData++
		}
	}

	fmt.Fprintf(out, "Enriched: %d, Skipped: %d, No data: %d\n", enriched, skipped, noData)
	return nil
}
