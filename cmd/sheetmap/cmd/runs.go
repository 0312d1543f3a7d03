package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/annotlab/sheetmap/internal/config"
	"github.com/annotlab/sheetmap/internal/runlog"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent import runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		runs, err := runlog.Open(cfg.RunLogPath)
		if err != nil {
			return fmt.Errorf("opening run log: %w", err)
		}
		defer runs.Close()

		recent, err := runs.Recent(runsLimit)
		if err != nil {
			return err
		}

		if jsonOut {
			return outputJSON(recent)
		}

		if len(recent) == 0 {
			fmt.Println("No import runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tPROJECT\tSOURCE\tSHEET\tINSERTED\tSKIPPED")
		for _, run := range recent {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%d\n",
				run.CreatedAt.Local().Format("2006-01-02 15:04"),
				run.ProjectID, run.Source, run.Sheet, run.Inserted, run.Skipped)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to show")
	rootCmd.AddCommand(runsCmd)
}
