package search

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"audio-whisper/internal/app"
)

// Cmd represents the search command
var Cmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search transcriptions by title, summary and segment text",
	Long: `Search transcriptions by title, summary and segment text.

The match is case-insensitive. Multiple words are treated as one phrase.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		q, cleanup, err := app.InitializeQueue(configPath)
		if err != nil {
			return err
		}
		defer cleanup()

		query := strings.Join(args, " ")
		results, err := q.Search(query)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Printf("no transcriptions match %q\n", query)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "JOB\tTITLE\tSUMMARY")
		for _, hit := range results {
			fmt.Fprintf(w, "%s\t%s\t%s\n", hit.JobID, hit.Title, truncate(hit.Summary, 80))
		}
		return w.Flush()
	},
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
