package enqueue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"audio-whisper/internal/app"
	"audio-whisper/internal/app/batch"
)

var (
	dir      string
	provider string
	wait     bool
)

func init() {
	Cmd.Flags().StringVarP(&dir, "dir", "d", "",
		"enqueue every audio file in this directory, oldest first")
	Cmd.Flags().StringVarP(&provider, "provider", "p", "",
		"transcription provider (gemini or openai), defaults to the configured one")
	Cmd.Flags().BoolVarP(&wait, "wait", "w", false,
		"run the worker in-process and wait until the jobs finish")
}

// Cmd represents the enqueue command
var Cmd = &cobra.Command{
	Use:   "enqueue [audio files...]",
	Short: "Add audio files to the transcription queue",
	Long: `Add audio files to the transcription queue.

- Positional arguments are audio file paths, enqueued one by one
- With --dir every audio file in the directory is enqueued as well
- Without --wait jobs stay pending until 'a2t serve' picks them up`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if dir == "" && len(args) == 0 {
			return errors.New("give audio file paths or --dir")
		}
		configPath, _ := cmd.Flags().GetString("config")

		q, cleanup, err := app.InitializeQueue(configPath)
		if err != nil {
			return err
		}
		defer cleanup()

		if wait {
			if err := q.Start(); err != nil {
				return err
			}
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				defer cancel()
				if err := q.Stop(stopCtx); err != nil {
					log.Printf("queue stop: %v", err)
				}
			}()
		}

		enqueuer := batch.NewEnqueuer(q, batch.ProgressConfig{Enabled: batch.ShouldShowProgress(false)})
		defer enqueuer.Close()

		var ids []string
		for _, path := range args {
			rec, err := q.Enqueue(path, provider)
			if err != nil {
				log.Printf("Error enqueueing %s: %v", path, err)
				continue
			}
			fmt.Printf("enqueued %s (%s)\n", rec.ID, filepath.Base(rec.AudioPath))
			ids = append(ids, rec.ID)
		}

		if dir != "" {
			records, err := enqueuer.EnqueueDir(dir, provider)
			if err != nil {
				return err
			}
			for _, rec := range records {
				ids = append(ids, rec.ID)
			}
			fmt.Printf("enqueued %d jobs from %s\n", len(records), dir)
		}

		if !wait {
			if len(ids) > 0 {
				fmt.Println("jobs are pending, run 'a2t serve' or re-run with --wait to process them")
			}
			return nil
		}

		waitCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		completed, failed, err := enqueuer.WaitForJobs(waitCtx, ids)
		if err != nil {
			return err
		}
		fmt.Printf("done: %d completed, %d failed\n", completed, failed)
		return nil
	},
}
