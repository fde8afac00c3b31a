package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/imageloader/internal/config"
	"github.com/nao1215/imageloader/internal/history"
	"github.com/nao1215/imageloader/internal/report"
)

// defaultHistoryLimit is the number of runs listed when --limit is not set.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous runs",
		Long: `History lists the runs recorded in the history database, newest first.
With --id it shows one run and the result for each of its images.

Examples:
  # List the last 20 runs
  imageloader history

  # Show every image of run 12 as Markdown
  imageloader history --id 12 --markdown

  # Export the last 100 runs as JSON
  imageloader history --limit 100 --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit, "Maximum number of runs to list (0 for all)")
	cmd.Flags().Int64("id", 0, "Show the details of a single run")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	id, err := flags.GetInt64("id")
	if err != nil {
		return err
	}
	asJSON, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	asMarkdown, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}

	dir, err := historyDir(cmd)
	if err != nil {
		return err
	}

	format := report.FormatText
	switch {
	case asJSON:
		format = report.FormatJSON
	case asMarkdown:
		format = report.FormatMarkdown
	}
	w := report.NewWriter(cmd.OutOrStdout(), format)

	// Reading history never creates the database.
	if _, err := os.Stat(filepath.Join(dir, history.DBFileName)); errors.Is(err, os.ErrNotExist) {
		if id != 0 {
			return fmt.Errorf("%w: %d", history.ErrRunNotFound, id)
		}
		_, err := w.WriteHistory(nil)
		return err
	}

	store, err := history.Open(dir, history.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	if id != 0 {
		rec, err := store.GetRun(cmd.Context(), id)
		if err != nil {
			return err
		}
		_, err = w.WriteRun(rec)
		return err
	}

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	_, err = w.WriteHistory(runs)
	return err
}

// historyDir returns the history database directory, honouring historyDir
// from the config file.
func historyDir(cmd *cobra.Command) (string, error) {
	cfg := config.NewConfig()
	if err := loadConfigFile(cmd, cfg); err != nil {
		return "", err
	}
	return cfg.HistoryDir, nil
}
