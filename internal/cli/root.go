// Package cli implements the kohlkopf commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/kohlkopf/kohlkopf/internal/version"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kohlkopf",
		Short:         "Concert list with artist enrichment",
		Long:          "Keeps a list of concerts and enriches each artist with MusicBrainz genres, a Wikipedia summary and an image.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Config file (default: $KK_CONFIG_PATH or ./kohlkopf.yaml)")

	root.AddCommand(
		newAddCmd(),
		newRenameCmd(),
		newRmCmd(),
		newListCmd(),
		newEnrichCmd(),
		newTestEnrichmentCmd(),
	)
	return root
}
