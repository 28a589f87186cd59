package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"streamscout/internal/config"
	"streamscout/internal/history"
	"streamscout/internal/media"
	"streamscout/internal/provider"
	"streamscout/internal/ui"
)

var (
	flagLimit  int
	flagClear  bool
	flagPick   bool
	flagRemove int64
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent resolutions",
	Args:  cobra.NoArgs,
	RunE:  historyRun,
}

func init() {
	historyCmd.Flags().IntVar(&flagLimit, "limit", 20, "Number of entries to show")
	historyCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete all entries")
	historyCmd.Flags().BoolVar(&flagPick, "pick", false, "Pick an entry with fzf and resolve it again")
	historyCmd.Flags().Int64Var(&flagRemove, "remove", 0, "Delete the entry with this ID (shown as #ID)")
	historyCmd.MarkFlagsMutuallyExclusive("clear", "remove", "pick")
}

func historyRun(cmd *cobra.Command, args []string) error {
	path, err := config.HistoryPath()
	if err != nil {
		return err
	}
	store, err := history.Open(path)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if flagClear {
		return store.Clear(ctx)
	}
	if flagRemove > 0 {
		return store.Remove(ctx, flagRemove)
	}

	entries, err := store.Recent(ctx, flagLimit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if flagJSON {
		if entries == nil {
			entries = []media.HistoryEntry{}
		}
		return writeJSON(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No history entries found.")
		return nil
	}

	items := history.FormatForDisplay(entries)
	if !flagPick {
		ui.NewPrinter(os.Stdout).Lines(fmt.Sprintf("History (%d)", len(entries)), items)
		return nil
	}

	idx, err := ui.Select("History", items)
	if errors.Is(err, ui.ErrCancelled) {
		return nil
	}
	if err != nil {
		return err
	}

	selected := entries[idx]
	req := provider.NewRequest(selected.Type, selected.MediaID)
	if selected.Type.Episodic() && selected.Season > 0 && selected.Episode > 0 {
		req = req.WithEpisode(selected.Season, selected.Episode)
	}

	p, err := lookupProvider(selected.Provider)
	if err != nil {
		return err
	}
	return resolveAndShow(ctx, p, req)
}
