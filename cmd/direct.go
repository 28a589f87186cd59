package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"streamscout/internal/httputil"
	"streamscout/internal/media"
	"streamscout/internal/ui"
)

var directCmd = &cobra.Command{
	Use:   "direct <embed-url>",
	Short: "Run the generic extractor on any embed page",
	Args:  cobra.ExactArgs(1),
	RunE:  directRun,
}

func directRun(cmd *cobra.Command, args []string) error {
	if err := httputil.ValidateURL(args[0]); err != nil {
		return err
	}

	sources := newPipeline(newFetcher()).DirectSources(cmd.Context(), args[0])

	if flagJSON {
		return writeJSON(struct {
			Sources []media.SourceRecord `json:"sources"`
		}{sources})
	}
	ui.NewPrinter(os.Stdout).Sources(sources)
	return nil
}
