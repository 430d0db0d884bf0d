package fetch

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"audio-whisper/internal/app"
	"audio-whisper/internal/downloader"
)

var downloadDir string
var skipEnqueue bool

func init() {
	Cmd.Flags().StringVarP(&downloadDir, "dir", "d", "", "directory to save downloaded files (default is the queue's incoming directory)")
	Cmd.Flags().BoolVar(&skipEnqueue, "no-enqueue", false, "only download, do not enqueue transcription jobs")
}

// Cmd represents the fetch command
var Cmd = &cobra.Command{
	Use:   "fetch <episode-url>...",
	Short: "Download podcast episodes and enqueue them for transcription",
	Long: `Download podcast episodes and enqueue them for transcription.

Each argument is an episode page URL. The audio link is scraped from the
page's Open Graph tags, downloaded, and a pending job is created for it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		q, cleanup, err := app.InitializeQueue(configPath)
		if err != nil {
			return err
		}
		defer cleanup()

		dir := downloadDir
		if dir == "" {
			dir, err = q.IncomingDir()
			if err != nil {
				return err
			}
		}

		saved := downloader.BatchDownloadEpisodes(args, dir)
		if len(saved) == 0 {
			return fmt.Errorf("no episodes could be downloaded")
		}
		if skipEnqueue {
			fmt.Printf("downloaded %d episode(s) to %s\n", len(saved), dir)
			return nil
		}

		for _, path := range saved {
			rec, err := q.Enqueue(path, q.DefaultProvider())
			if err != nil {
				log.Printf("failed to enqueue %s: %v", path, err)
				continue
			}
			fmt.Printf("enqueued %s (%s)\n", rec.ID, path)
		}
		fmt.Println("jobs are pending, run 'a2t serve' to process them")
		return nil
	},
}
