package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kohlkopf/kohlkopf/internal/enrich"
)

func newTestEnrichmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test-enrichment [artist]",
		Short: "Dry-run the MusicBrainz and Wikipedia lookups without saving anything",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTestEnrichment,
	}
	cmd.Flags().BoolP("all", "a", false, "Test every concert in the database")
	return cmd
}

func runTestEnrichment(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	if !all && len(args) == 0 {
		return errors.New("provide an artist name or use --all")
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if !all {
		r := a.enricher.Inspect(cmd.Context(), args[0])
		printReport(cmd.OutOrStdout(), r)
		return nil
	}
	return inspectAll(cmd, a)
}

func inspectAll(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	concerts, err := a.concerts.List(ctx)
	if err != nil {
		return err
	}
	total := len(concerts)
	fmt.Fprintf(out, "Dry run for %d concerts (nothing is saved)\n\n", total)

	seen := make(map[string]*enrich.Report)
	rows := make([]*enrich.Report, 0, total)
	for i, c := range concerts {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(out, "[%d/%d] %q\n", i+1, total, c.Title)

		key := strings.ToLower(strings.TrimSpace(c.Title))
		if r, ok := seen[key]; ok {
			fmt.Fprintln(out, "  (duplicate name, reusing previous result)")
			rows = append(rows, r)
			continue
		}
		r := a.enricher.Inspect(ctx, c.Title)
		seen[key] = r
		rows = append(rows, r)

		fmt.Fprintf(out, "  MB: %s | Wiki: %s | Image: %s | Genres: %s\n",
			mark(r.MusicBrainzFound, string(r.Kind)), mark(r.WikipediaFound, ""),
			mark(r.HasImage, ""), orDash(r.GenreList()))
		if r.TitleDiffers() {
			fmt.Fprintf(out, "  Wikipedia title differs: %q\n", r.WikipediaTitle)
		}
	}

	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONCERT\tMUSICBRAINZ\tTYPE\tGENRES\tMB→WIKI\tWIKI\tIMAGE\tWIKI SOURCE")
	var mbHits, wikiHits, imageHits int
	for i, r := range rows {
		if r.MusicBrainzFound {
			mbHits++
		}
		if r.WikipediaFound {
			wikiHits++
		}
		if r.HasImage {
			imageHits++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			concerts[i].Title,
			mark(r.MusicBrainzFound, r.MusicBrainzName),
			orDash(string(r.Kind)),
			orDash(r.GenreList()),
			mark(r.MusicBrainzWikipediaURL != "", ""),
			mark(r.WikipediaFound, ""),
			mark(r.HasImage, ""),
			orDash(r.Source))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nResults: %d/%d MusicBrainz | %d/%d Wikipedia | %d/%d Images\n",
		mbHits, total, wikiHits, total, imageHits, total)
	return nil
}

func printReport(w io.Writer, r *enrich.Report) {
	fmt.Fprintf(w, "Testing enrichment for: %s\n\n", r.Name)

	fmt.Fprintln(w, "MusicBrainz")
	if !r.MusicBrainzFound {
		fmt.Fprintln(w, "  no match, Wikipedia search is used instead")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "  name\t%s\n", r.MusicBrainzName)
		fmt.Fprintf(tw, "  mbid\t%s\n", r.MBID)
		fmt.Fprintf(tw, "  type\t%s\n", orDash(string(r.Kind)))
		fmt.Fprintf(tw, "  genres\t%s\n", orDash(r.GenreList()))
		fmt.Fprintf(tw, "  wikipedia url\t%s\n", orDash(r.MusicBrainzWikipediaURL))
		_ = tw.Flush()
	}

	fmt.Fprintln(w, "\nWikipedia")
	if !r.WikipediaFound {
		fmt.Fprintln(w, "  no data")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "  source\t%s\n", r.Source)
		fmt.Fprintf(tw, "  title\t%s\n", r.WikipediaTitle)
		fmt.Fprintf(tw, "  description\t%s\n", orDash(r.WikipediaDescription))
		fmt.Fprintf(tw, "  image\t%s\n", mark(r.HasImage, "available"))
		fmt.Fprintf(tw, "  url (final)\t%s\n", orDash(r.WikipediaURL))
		_ = tw.Flush()
	}

	mbid := ""
	if r.MusicBrainzFound {
		mbid = "MBID=" + r.MBID
	}
	fmt.Fprintf(w, "\nMusicBrainz: %s | Wikipedia: %s | Image: %s | Genres: %s\n",
		mark(r.MusicBrainzFound, mbid), mark(r.WikipediaFound, ""),
		mark(r.HasImage, ""), orDash(r.GenreList()))
}

// mark renders a hit/miss flag with an optional detail for hits.
func mark(ok bool, detail string) string {
	if !ok {
		return "no"
	}
	if detail == "" {
		return "yes"
	}
	return "yes " + detail
}
