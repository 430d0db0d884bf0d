package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"audio-whisper/internal/api/v1/dto"
	"audio-whisper/internal/app"
	"audio-whisper/internal/app/queue"
	"audio-whisper/internal/app/util/files"
)

var statusFilter string

func init() {
	listCmd.Flags().StringVarP(&statusFilter, "status", "s", "",
		"only list jobs with this status (pending, processing, completed, failed)")

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(retryCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(openCmd)
}

// Cmd represents the jobs command
var Cmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and manage transcription jobs",
	Long:  `Inspect and manage the transcription jobs stored in the data directory.`,
}

func openQueue(cmd *cobra.Command) (*queue.TranscriptionQueue, func(), error) {
	configPath, _ := cmd.Flags().GetString("config")
	return app.InitializeQueue(configPath)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, cleanup, err := openQueue(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		records, err := q.List()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tPROVIDER\tTITLE\tCREATED")
		for _, rec := range records {
			if statusFilter != "" && string(rec.Status) != statusFilter {
				continue
			}
			title := rec.Title
			if title == "" {
				title = filepath.Base(rec.AudioPath)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				rec.ID, rec.Status, rec.Provider, title, rec.CreatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var getCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Show one job with its transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, cleanup, err := openQueue(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		detail, err := q.Detail(args[0])
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(dto.ToJobDetailResponse(detail), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry <job-id>",
	Short: "Put a failed job back in line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, cleanup, err := openQueue(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		rec, err := q.Retry(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("job %s is %s again, run 'a2t serve' or 'a2t enqueue --wait' to process it\n", rec.ID, rec.Status)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a terminal job and its files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, cleanup, err := openQueue(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := q.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted job %s\n", args[0])
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open <job-id>",
	Short: "Open the job's directory in the file manager",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, cleanup, err := openQueue(cmd)
		if err != nil {
			return err
		}
		defer cleanup()

		dir, err := q.JobDir(args[0])
		if err != nil {
			return err
		}
		if err := files.RevealDir(dir); err != nil {
			return err
		}
		fmt.Println(dir)
		return nil
	},
}
